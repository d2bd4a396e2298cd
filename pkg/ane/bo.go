package ane

import "fmt"

// bo is one device-backed, host-mapped buffer. A bo is either fully live
// (handle, offset and mapping all valid) or nil; allocBO never returns a
// partial buffer.
type bo struct {
	size   uint64
	handle uint32
	offset uint64
	buf    []byte
}

// allocBO acquires and maps a device buffer in one step. If mapping fails
// the device-side allocation is released before returning, so the caller
// never has to clean up a half-built buffer.
func allocBO(t Transport, size uint64) (*bo, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-size buffer", ErrInvalidArg)
	}

	handle, offset, err := t.AllocBuffer(size)
	if err != nil {
		return nil, fmt.Errorf("%w: size %#x: %v", ErrAllocFailed, size, err)
	}

	buf, err := t.MapBuffer(offset, size)
	if err != nil {
		_ = t.FreeBuffer(handle)
		return nil, fmt.Errorf("%w: size %#x: %v", ErrMapFailed, size, err)
	}

	return &bo{size: size, handle: handle, offset: offset, buf: buf}, nil
}

// free unmaps then releases the buffer. Unmap strictly precedes release.
// Safe on a nil or already-freed bo.
func (b *bo) free(t Transport) error {
	if b == nil || (b.buf == nil && b.handle == 0) {
		return nil
	}
	var firstErr error
	if b.buf != nil {
		firstErr = t.UnmapBuffer(b.buf)
		b.buf = nil
	}
	if err := t.FreeBuffer(b.handle); err != nil && firstErr == nil {
		firstErr = err
	}
	b.handle = 0
	b.offset = 0
	return firstErr
}
