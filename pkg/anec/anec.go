// Package anec implements the compiled ANE job container format.
//
// An anec file starts with a fixed-layout little-endian header padded to
// HeaderSlotSize, followed by the raw task-program payload of Header.Size
// bytes. The header declares how many channel buffers a job needs, their
// sizes in tile units, and the tensor geometry behind each source and
// destination channel.
package anec

// anec global constants must never change.
const (
	// TileCount is the number of entries in the channel tables. Absolute
	// channel indices run 0..TileCount-1.
	TileCount = 64

	// ReservedChannels are the leading control channels. Channel 0 carries
	// the task program; source/destination arithmetic never touches 0..3.
	ReservedChannels = 4

	// TileShift converts a header tile-unit count into bytes.
	TileShift = 14

	// TileSize is one tile unit in bytes (16 KiB).
	TileSize = 1 << TileShift

	// HeaderSlotSize is the padded on-disk size of the header slot. The
	// payload starts at this offset.
	HeaderSlotSize = 0x1000
)

// HeaderSize is the byte size of the packed header fields.
const HeaderSize = 8 + 4 + 4 + 8 + 8 + 4 + 4 + 4*TileCount + 8*6*TileCount

// Shape metadata indices inside a NCHW entry.
const (
	DimN = iota // batch
	DimC        // channels
	DimH        // height
	DimW        // width
	DimP        // padded plane byte pitch
	DimR        // padded row byte size
)

// Header is the Model Descriptor: the fixed-layout header of one compiled
// job. It is immutable once read.
type Header struct {
	// Size is the payload length in bytes (task program plus embedded
	// constant data), stored after the header slot.
	Size uint64

	// TdSize and TdCount describe the task descriptor chain at the head of
	// the payload.
	TdSize  uint32
	TdCount uint32

	// TskSize is the task program size within the payload.
	TskSize uint64

	// KrnSize is the size of the embedded kernel/constant section.
	KrnSize uint64

	// SrcCount and DstCount are the number of input and output tensors.
	SrcCount uint32
	DstCount uint32

	// Tiles holds each channel's size in tile units; zero means the channel
	// is not present.
	Tiles [TileCount]uint32

	// NCHW holds per-channel tensor geometry (N, C, H, W, P, R).
	NCHW [TileCount][6]uint64
}

// TileBytes returns the byte size of the channel at absolute index bdx,
// or 0 if the channel is not present.
func (h *Header) TileBytes(bdx int) uint64 {
	if bdx < 0 || bdx >= TileCount {
		return 0
	}
	return uint64(h.Tiles[bdx]) << TileShift
}

// DstChannel maps destination index i to its absolute channel index.
func (h *Header) DstChannel(i int) int {
	return ReservedChannels + i
}

// SrcChannel maps source index j to its absolute channel index.
func (h *Header) SrcChannel(j int) int {
	return ReservedChannels + int(h.DstCount) + j
}

// Valid performs structural sanity checks on a freshly decoded header.
func (h *Header) Valid() error {
	if h.Size == 0 {
		return wrapf(ErrCorrupt, "zero payload size")
	}
	if h.Size > maxPayloadSize {
		return wrapf(ErrCorrupt, "payload size %#x out of range", h.Size)
	}
	if h.TdSize == 0 || h.TdCount == 0 {
		return wrapf(ErrCorrupt, "empty task descriptor chain")
	}
	if uint64(h.TdSize) > h.Size {
		return wrapf(ErrCorrupt, "td_size %#x exceeds payload %#x", h.TdSize, h.Size)
	}
	if h.TskSize > h.Size {
		return wrapf(ErrCorrupt, "tsk_size %#x exceeds payload %#x", h.TskSize, h.Size)
	}
	total := ReservedChannels + int(h.DstCount) + int(h.SrcCount)
	if total > TileCount {
		return wrapf(ErrCorrupt, "channel counts dst=%d src=%d exceed table", h.DstCount, h.SrcCount)
	}
	if h.Tiles[0] != 0 && h.TileBytes(0) < h.Size {
		return wrapf(ErrCorrupt, "task program channel smaller than payload")
	}
	return nil
}

// maxPayloadSize bounds Header.Size so a corrupt header cannot drive an
// absurd allocation. Compiled jobs are tens of megabytes at most.
const maxPayloadSize = 1 << 32
