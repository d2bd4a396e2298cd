package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/anekit/internal/logger"
)

type stubRunner struct {
	info    ModelInfo
	outputs [][]byte
	err     error

	gotInputs [][]byte
	gotTiled  bool
}

func (r *stubRunner) Describe() ModelInfo { return r.info }

func (r *stubRunner) Predict(ctx context.Context, inputs [][]byte, tiled bool) ([][]byte, error) {
	r.gotInputs = inputs
	r.gotTiled = tiled
	if r.err != nil {
		return nil, r.err
	}
	return r.outputs, nil
}

func newTestEcho(r Runner) *echo.Echo {
	e := echo.New()
	NewServer(r, logger.Nop()).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestEcho(&stubRunner{})
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestModelInfo(t *testing.T) {
	t.Parallel()

	r := &stubRunner{info: ModelInfo{
		Name:        "squeezenet",
		PayloadSize: 0x2000,
		Sources:     []ChannelInfo{{Index: 0, Bytes: 0x8000}},
		Destinations: []ChannelInfo{{Index: 0, Bytes: 0x4000}},
	}}
	rec := doJSON(t, newTestEcho(r), http.MethodGet, "/v1/model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got ModelInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "squeezenet" || len(got.Sources) != 1 || len(got.Destinations) != 1 {
		t.Fatalf("unexpected info: %+v", got)
	}
}

func TestPredict(t *testing.T) {
	t.Parallel()

	r := &stubRunner{outputs: [][]byte{{9, 8, 7}}}
	e := newTestEcho(r)

	body, _ := json.Marshal(PredictRequest{Inputs: [][]byte{{1, 2, 3}}, Tiled: true})
	rec := doJSON(t, e, http.MethodPost, "/v1/predict", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" {
		t.Error("empty response id")
	}
	if len(resp.Outputs) != 1 || !bytes.Equal(resp.Outputs[0], []byte{9, 8, 7}) {
		t.Errorf("outputs = %v", resp.Outputs)
	}
	if !r.gotTiled || len(r.gotInputs) != 1 || !bytes.Equal(r.gotInputs[0], []byte{1, 2, 3}) {
		t.Errorf("runner saw inputs=%v tiled=%v", r.gotInputs, r.gotTiled)
	}
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestEcho(&stubRunner{err: errors.New("device busy")}),
		http.MethodPost, "/v1/predict", `{"inputs":["AQID"]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Error != "device busy" {
		t.Errorf("error = %q", er.Error)
	}
}

func TestPredictRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	rec := doJSON(t, newTestEcho(&stubRunner{}), http.MethodPost, "/v1/predict", `{"bogus":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
