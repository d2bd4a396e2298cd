package anec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validHeader() Header {
	h := Header{
		Size:     0x2000,
		TdSize:   0x100,
		TdCount:  2,
		TskSize:  0x1000,
		KrnSize:  0x1000,
		SrcCount: 1,
		DstCount: 1,
	}
	h.Tiles[0] = 1 // task program, 16 KiB
	h.Tiles[4] = 1 // dst 0
	h.Tiles[5] = 2 // src 0
	h.NCHW[4] = [6]uint64{1, 1, 2, 3, 0x100, 0x80}
	h.NCHW[5] = [6]uint64{1, 1, 4, 4, 0x200, 0x80}
	return h
}

func encodeHeader(t *testing.T, h Header) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	return buf.Bytes()
}

func writeModelFile(t *testing.T, h Header, payload []byte) string {
	t.Helper()
	raw := encodeHeader(t, h)
	file := make([]byte, HeaderSlotSize+len(payload))
	copy(file, raw)
	copy(file[HeaderSlotSize:], payload)

	path := filepath.Join(t.TempDir(), "model.anec")
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	return path
}

func TestHeaderSizeMatchesLayout(t *testing.T) {
	t.Parallel()
	if got := binary.Size(Header{}); got != HeaderSize {
		t.Fatalf("binary.Size(Header) = %d, want %d", got, HeaderSize)
	}
	if HeaderSize > HeaderSlotSize {
		t.Fatalf("header (%d bytes) does not fit its %d-byte slot", HeaderSize, HeaderSlotSize)
	}
}

func TestChannelIndexArithmetic(t *testing.T) {
	t.Parallel()

	h := Header{SrcCount: 3, DstCount: 2}
	seen := map[int]bool{0: true, 1: true, 2: true, 3: true}
	for i := 0; i < int(h.DstCount); i++ {
		bdx := h.DstChannel(i)
		if bdx != 4+i {
			t.Errorf("DstChannel(%d) = %d, want %d", i, bdx, 4+i)
		}
		if seen[bdx] {
			t.Errorf("DstChannel(%d) = %d collides", i, bdx)
		}
		seen[bdx] = true
	}
	for j := 0; j < int(h.SrcCount); j++ {
		bdx := h.SrcChannel(j)
		if bdx != 4+int(h.DstCount)+j {
			t.Errorf("SrcChannel(%d) = %d, want %d", j, bdx, 4+int(h.DstCount)+j)
		}
		if seen[bdx] {
			t.Errorf("SrcChannel(%d) = %d collides", j, bdx)
		}
		seen[bdx] = true
	}
}

func TestTileBytes(t *testing.T) {
	t.Parallel()

	var h Header
	h.Tiles[4] = 1
	h.Tiles[5] = 2
	if got := h.TileBytes(4); got != 0x4000 {
		t.Errorf("TileBytes(4) = %#x, want 0x4000", got)
	}
	if got := h.TileBytes(5); got != 0x8000 {
		t.Errorf("TileBytes(5) = %#x, want 0x8000", got)
	}
	if got := h.TileBytes(6); got != 0 {
		t.Errorf("TileBytes(6) = %#x, want 0 for absent channel", got)
	}
	if got := h.TileBytes(-1); got != 0 {
		t.Errorf("TileBytes(-1) = %#x, want 0", got)
	}
	if got := h.TileBytes(TileCount); got != 0 {
		t.Errorf("TileBytes(TileCount) = %#x, want 0", got)
	}
}

func TestHeaderValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Header)
	}{
		{"zero size", func(h *Header) { h.Size = 0 }},
		{"huge size", func(h *Header) { h.Size = maxPayloadSize + 1 }},
		{"zero td_size", func(h *Header) { h.TdSize = 0 }},
		{"zero td_count", func(h *Header) { h.TdCount = 0 }},
		{"td_size past payload", func(h *Header) { h.TdSize = uint32(h.Size) + 1 }},
		{"tsk_size past payload", func(h *Header) { h.TskSize = h.Size + 1 }},
		{"channel overflow", func(h *Header) { h.SrcCount = 40; h.DstCount = 40 }},
		{"program channel too small", func(h *Header) { h.Size = TileSize + 1 }},
	}

	if err := (func() error { h := validHeader(); return h.Valid() })(); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.mutate(&h)
			if err := h.Valid(); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Valid() = %v, want ErrCorrupt", err)
			}
		})
	}
}
