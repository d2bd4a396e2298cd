package ane

import (
	"errors"
	"testing"

	"github.com/samcharles93/anekit/pkg/anec"
)

var errInjected = errors.New("injected failure")

// fakeTransport emulates the device control surface in host memory. It can
// inject failures at a given allocation or mapping position and records
// every lifecycle event so tests can assert rollback behaviour.
type fakeTransport struct {
	nextHandle uint32
	allocCalls int

	failAllocAt int // fail the n-th AllocBuffer (1-based), 0 = never
	failMapAt   int // fail the n-th MapBuffer (1-based), 0 = never
	mapCalls    int
	submitErr   error

	live     map[uint32][]byte // handle -> backing memory
	byOffset map[uint64]uint32
	offsets  map[uint32]uint64
	freed    []uint32
	submits  []SubmitRequest
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		live:     make(map[uint32][]byte),
		byOffset: make(map[uint64]uint32),
		offsets:  make(map[uint32]uint64),
	}
}

func (f *fakeTransport) AllocBuffer(size uint64) (uint32, uint64, error) {
	f.allocCalls++
	if f.failAllocAt != 0 && f.allocCalls == f.failAllocAt {
		return 0, 0, errInjected
	}
	f.nextHandle++
	h := f.nextHandle
	off := uint64(h) << 20
	f.live[h] = make([]byte, size)
	f.byOffset[off] = h
	f.offsets[h] = off
	return h, off, nil
}

func (f *fakeTransport) FreeBuffer(handle uint32) error {
	if _, ok := f.live[handle]; !ok {
		return errors.New("free of unknown handle")
	}
	delete(f.byOffset, f.offsets[handle])
	delete(f.offsets, handle)
	delete(f.live, handle)
	f.freed = append(f.freed, handle)
	return nil
}

func (f *fakeTransport) MapBuffer(offset, size uint64) ([]byte, error) {
	f.mapCalls++
	if f.failMapAt != 0 && f.mapCalls == f.failMapAt {
		return nil, errInjected
	}
	h, ok := f.byOffset[offset]
	if !ok {
		return nil, errors.New("map of unknown offset")
	}
	buf := f.live[h]
	if uint64(len(buf)) != size {
		return nil, errors.New("map size mismatch")
	}
	return buf, nil
}

func (f *fakeTransport) UnmapBuffer(buf []byte) error { return nil }

func (f *fakeTransport) Submit(req *SubmitRequest) error {
	f.submits = append(f.submits, *req)
	return f.submitErr
}

// memory returns the backing bytes of the buffer currently mapped at the
// given handle.
func (f *fakeTransport) memory(handle uint32) []byte { return f.live[handle] }

// testModel builds an in-memory model with one dst channel (1 tile) and
// one src channel (2 tiles), plus the task program in channel 0.
func testModel(t *testing.T) *anec.Model {
	t.Helper()

	h := anec.Header{
		Size:     0x800,
		TdSize:   0x100,
		TdCount:  1,
		TskSize:  0x800,
		SrcCount: 1,
		DstCount: 1,
	}
	h.Tiles[0] = 1
	h.Tiles[4] = 1 // dst 0: 16 KiB
	h.Tiles[5] = 2 // src 0: 32 KiB
	h.NCHW[4] = [6]uint64{1, 1, 4, 4, 0x200, 0x80}
	h.NCHW[5] = [6]uint64{1, 1, 8, 8, 0x400, 0x80}

	data := make([]byte, h.Size)
	for i := range data {
		data[i] = byte(i * 7)
	}
	m := &anec.Model{Header: h, Data: data}
	if err := m.Header.Valid(); err != nil {
		t.Fatalf("test model invalid: %v", err)
	}
	return m
}
