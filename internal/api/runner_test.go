package api

import (
	"bytes"
	"context"
	"testing"

	"github.com/samcharles93/anekit/pkg/ane"
	"github.com/samcharles93/anekit/pkg/anec"
)

// memTransport backs device buffers with plain host memory and makes
// Submit echo every source channel into the destination channel of the
// same rank, so Predict round trips observably.
type memTransport struct {
	next    uint32
	bufs    map[uint32][]byte
	offsets map[uint64]uint32
	echoFor map[uint32]uint32 // dst handle -> src handle, filled by the test
}

func newMemTransport() *memTransport {
	return &memTransport{
		bufs:    make(map[uint32][]byte),
		offsets: make(map[uint64]uint32),
		echoFor: make(map[uint32]uint32),
	}
}

func (m *memTransport) AllocBuffer(size uint64) (uint32, uint64, error) {
	m.next++
	off := uint64(m.next) << 24
	m.bufs[m.next] = make([]byte, size)
	m.offsets[off] = m.next
	return m.next, off, nil
}

func (m *memTransport) FreeBuffer(handle uint32) error {
	delete(m.bufs, handle)
	return nil
}

func (m *memTransport) MapBuffer(offset, size uint64) ([]byte, error) {
	return m.bufs[m.offsets[offset]], nil
}

func (m *memTransport) UnmapBuffer(buf []byte) error { return nil }

func (m *memTransport) Submit(req *ane.SubmitRequest) error {
	for dst, src := range m.echoFor {
		copy(m.bufs[dst], m.bufs[src])
	}
	return nil
}

func runnerModel() *anec.Model {
	h := anec.Header{
		Size:     0x200,
		TdSize:   0x80,
		TdCount:  1,
		TskSize:  0x200,
		SrcCount: 1,
		DstCount: 1,
	}
	h.Tiles[0] = 1
	h.Tiles[4] = 1
	h.Tiles[5] = 1
	h.NCHW[4] = [6]uint64{1, 1, 2, 2, 0x80, 0x40}
	h.NCHW[5] = [6]uint64{1, 1, 2, 2, 0x80, 0x40}
	return &anec.Model{Header: h, Data: make([]byte, h.Size)}
}

func TestJobRunnerPredict(t *testing.T) {
	t.Parallel()

	m := runnerModel()
	tr := newMemTransport()
	nn, err := ane.Attach(m, tr)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer nn.Close()

	// Wire the device fake: dst channel 4 echoes src channel 5. Handles 1
	// and 2 are channel 0 and 4, handle 3 is channel 5.
	tr.echoFor[2] = 3

	r := NewJobRunner("echo", m, nn)

	info := r.Describe()
	if info.Name != "echo" || len(info.Sources) != 1 || len(info.Destinations) != 1 {
		t.Fatalf("unexpected describe: %+v", info)
	}
	if info.Sources[0].Bytes != 0x4000 || info.Sources[0].W != 2 {
		t.Fatalf("unexpected source info: %+v", info.Sources[0])
	}

	in := []byte{1, 2, 3, 4, 5, 6, 7, 8} // 1x1x2x2 fp16 dense
	outs, err := r.Predict(context.Background(), [][]byte{in}, true)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(outs) != 1 || !bytes.Equal(outs[0], in) {
		t.Fatalf("outputs = %v, want echoed input", outs)
	}

	if _, err := r.Predict(context.Background(), nil, false); err == nil {
		t.Fatal("Predict with wrong input count succeeded")
	}
}
