// Package drm tracks the uAPI of the ANE DRM accel driver.
//
// It describes the kernel control surface only: ioctl request numbers, the
// argument structs they carry, and thin wrappers that issue them. Struct
// layouts must match the driver headers exactly.
package drm

const (
	// DRM core ioctl type byte.
	drmIoctlBase = 'd'

	// Driver-private ioctls start here.
	drmCommandBase = 0x40
)

// TileCount is the size of the submit record's handle table. It matches
// the driver's per-job buffer cap.
const TileCount = 64

// Version mirrors struct drm_version for 64-bit targets. The caller fills
// NameLen/Name (and optionally date/desc) before the second query call.
type Version struct {
	Major   int32
	Minor   int32
	Patch   int32
	_       uint32
	NameLen uint64
	Name    *byte
	DateLen uint64
	Date    *byte
	DescLen uint64
	Desc    *byte
}

// BoInit mirrors struct drm_ane_bo_init. Size is the requested byte size;
// the driver returns the GEM handle and the mmap fake-offset.
type BoInit struct {
	Size   uint64
	Handle uint32
	Pad    uint32
	Offset uint64
}

// BoFree mirrors struct drm_ane_bo_free.
type BoFree struct {
	Handle uint32
	Pad    uint32
}

// Submit mirrors struct drm_ane_submit. Handles is indexed by absolute
// channel index; zero entries mean the channel is not part of the job.
type Submit struct {
	TskSize    uint64
	TDCount    uint64
	TDSize     uint64
	Handles    [TileCount]uint32
	BtspHandle uint32
	Pad        uint32
}
