package ane

// SubmitRequest is one job submission: the task geometry from the model
// descriptor plus the buffer handle of every present channel, indexed by
// absolute channel index (zero for absent channels).
type SubmitRequest struct {
	TskSize    uint64
	TDCount    uint32
	TDSize     uint32
	Handles    [TileCount]uint32
	BtspHandle uint32
}

// Transport is the control surface of one accelerator instance. The real
// implementation speaks the kernel driver's ioctl interface; tests inject
// an in-memory fake.
//
// A Transport is consumed by at most one goroutine at a time per job
// instance; implementations are not required to be safe for concurrent use
// across job instances sharing one device handle.
type Transport interface {
	// AllocBuffer requests a device-backed region of size bytes and
	// returns its opaque handle plus the mapping offset.
	AllocBuffer(size uint64) (handle uint32, offset uint64, err error)

	// FreeBuffer releases a device allocation.
	FreeBuffer(handle uint32) error

	// MapBuffer maps an allocated region into host memory, shared
	// read/write with the device. Host writes into the returned slice are
	// visible to the accelerator without further synchronization.
	MapBuffer(offset, size uint64) ([]byte, error)

	// UnmapBuffer undoes MapBuffer.
	UnmapBuffer(buf []byte) error

	// Submit issues one job and blocks until the device completes or
	// rejects it.
	Submit(req *SubmitRequest) error
}
