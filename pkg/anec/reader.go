package anec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Model owns one decoded Model Descriptor plus the raw payload bytes.
// Nothing is mutated after Load, so a Model may be shared read-only across
// any number of concurrently running job instances.
type Model struct {
	Header Header
	Data   []byte
}

// Load reads and validates a compiled model from path.
//
// Any failure, including a short read of either the header or the payload,
// returns an error and no Model; there is no partially loaded state.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("anec: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("anec: load %s: %w", path, err)
	}
	return m, nil
}

// Read decodes a model from a random-access reader positioned at the start
// of the container.
func Read(r io.ReaderAt) (*Model, error) {
	raw := make([]byte, HeaderSize)
	if err := readFullAt(r, raw, 0); err != nil {
		return nil, err
	}

	var hdr Header
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if err := hdr.Valid(); err != nil {
		return nil, err
	}

	data := make([]byte, hdr.Size)
	if err := readFullAt(r, data, HeaderSlotSize); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}

	return &Model{Header: hdr, Data: data}, nil
}

func readFullAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return wrapf(ErrShortRead, "got %#x of %#x bytes at offset %#x", n, len(buf), off)
	}
	return err
}
