// Package api exposes a loaded job instance over HTTP: model metadata plus
// blocking prediction. One request runs one accelerator job.
package api

import (
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/anekit/internal/logger"
)

// Server registers the anekit REST surface on an echo instance.
type Server struct {
	runner Runner
	log    logger.Logger
}

func NewServer(runner Runner, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{runner: runner, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.POST("/v1/predict", s.handlePredict)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModel(c *echo.Context) error {
	if s.runner == nil {
		return writeErr(c, http.StatusServiceUnavailable, "no model loaded")
	}
	return writeJSON(c, http.StatusOK, s.runner.Describe())
}

func (s *Server) handlePredict(c *echo.Context) error {
	if s.runner == nil {
		return writeErr(c, http.StatusServiceUnavailable, "no model loaded")
	}
	req, err := decodeJSON[PredictRequest](c.Request().Body)
	if err != nil {
		return writeErr(c, http.StatusBadRequest, err.Error())
	}

	id := uuid.NewString()
	outputs, err := s.runner.Predict(c.Request().Context(), req.Inputs, req.Tiled)
	if err != nil {
		s.log.Warn("prediction failed", "id", id, "error", err)
		return writeErr(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.log.Debug("prediction done", "id", id, "outputs", len(outputs))

	return writeJSON(c, http.StatusOK, PredictResponse{ID: id, Outputs: outputs})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode request: %w", err)
	}
	return v, nil
}

// writeJSON encodes through goccy/go-json rather than echo's default
// serializer; predict payloads are large base64 blobs.
func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res.WriteHeader(status)
	_, err = res.Write(b)
	return err
}

func writeErr(c *echo.Context, status int, msg string) error {
	return writeJSON(c, status, ErrorResponse{Error: msg})
}
