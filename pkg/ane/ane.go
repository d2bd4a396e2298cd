// Package ane runs precompiled anec jobs on the ANE accelerator.
//
// The runtime binds one anec.Model to one open device: it allocates and
// maps a device buffer per declared channel, seeds the task program and the
// bootstrap record, moves tensors in and out of the mapped channel memory
// (raw or through the tiling transform), and submits blocking jobs.
//
// Everything is synchronous. A Model may be shared read-only across job
// instances; a single NN must not be shared across goroutines without
// external locking, and in-flight channels must not be touched until Exec
// returns.
package ane

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/samcharles93/anekit/internal/logger"
	"github.com/samcharles93/anekit/pkg/anec"
	"github.com/samcharles93/anekit/pkg/tile"
)

const (
	// TileCount is the channel table size; absolute indices run 0..63.
	TileCount = anec.TileCount

	// TileShift converts descriptor tile units to bytes.
	TileShift = anec.TileShift

	// TileSize is one tile unit in bytes.
	TileSize = anec.TileSize

	// fifoNID is the node identifier stamped into the bootstrap record so
	// the device treats it as a control record rather than a data tile.
	fifoNID = 0x40
)

// alignTile rounds n up to the next tile boundary.
func alignTile(n uint64) uint64 {
	return (n + TileSize - 1) &^ uint64(TileSize-1)
}

// NN is one live job instance: a Channel Set bound to a model and a device.
// It owns its buffers; it does not own the Model or the Transport.
type NN struct {
	model *anec.Model
	dev   Transport
	plan  *channelPlan

	chans [TileCount]*bo
	btsp  *bo

	checked bool
	closed  bool
	log     logger.Logger
}

// Attach builds a Channel Set for model on the device behind t.
//
// Every channel the descriptor declares is allocated and mapped; a single
// failure rolls back everything already acquired and no partial instance is
// returned. On success the task program has been copied into channel 0 and
// a FIFO-stamped copy of the task descriptor into the bootstrap buffer, so
// the instance is immediately executable.
func Attach(model *anec.Model, t Transport, opts ...Option) (*NN, error) {
	if model == nil || t == nil {
		return nil, fmt.Errorf("%w: nil model or transport", ErrInvalidArg)
	}
	if err := model.Header.Valid(); err != nil {
		return nil, err
	}
	plan, err := buildPlan(&model.Header)
	if err != nil {
		return nil, err
	}

	nn := &NN{
		model:   model,
		dev:     t,
		plan:    plan,
		checked: true,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(nn)
	}

	if err := nn.initChannels(); err != nil {
		return nil, err
	}
	nn.seedBootstrap()

	nn.log.Debug("job instance attached",
		"src", nn.SrcCount(), "dst", nn.DstCount(), "payload", len(model.Data))
	return nn, nil
}

// initChannels allocates and maps every present channel plus the bootstrap
// buffer, rolling back fully on any failure.
func (nn *NN) initChannels() error {
	hdr := &nn.model.Header
	for bdx := 0; bdx < TileCount; bdx++ {
		size := hdr.TileBytes(bdx)
		if size == 0 {
			continue
		}
		b, err := allocBO(nn.dev, size)
		if err != nil {
			nn.releaseAll()
			return fmt.Errorf("channel %d: %w", bdx, err)
		}
		nn.chans[bdx] = b
		nn.log.Debug("channel mapped",
			"channel", bdx, "role", nn.plan.slots[bdx].kind.String(), "bytes", size)
	}

	b, err := allocBO(nn.dev, alignTile(uint64(hdr.TdSize)))
	if err != nil {
		nn.releaseAll()
		return fmt.Errorf("bootstrap channel: %w", err)
	}
	nn.btsp = b
	return nil
}

// seedBootstrap copies the task program into channel 0 and a stamped copy
// of the task descriptor into the bootstrap buffer.
func (nn *NN) seedBootstrap() {
	hdr := &nn.model.Header
	if nn.chans[0] != nil {
		copy(nn.chans[0].buf, nn.model.Data)
	}
	copy(nn.btsp.buf, nn.model.Data[:hdr.TdSize])
	stampNID(nn.btsp.buf, fifoNID)
}

// stampNID overwrites bits 16..23 of the first 32-bit word with the node
// id, preserving every other bit.
func stampNID(td []byte, nid uint32) {
	w := binary.LittleEndian.Uint32(td)
	w = (w &^ (0xff << 16)) | ((nid & 0xff) << 16)
	binary.LittleEndian.PutUint32(td, w)
}

func (nn *NN) releaseAll() {
	for bdx := 0; bdx < TileCount; bdx++ {
		_ = nn.chans[bdx].free(nn.dev)
		nn.chans[bdx] = nil
	}
	_ = nn.btsp.free(nn.dev)
	nn.btsp = nil
}

// Close releases every buffer the instance owns. The Model and the device
// are left alone. Close is idempotent.
func (nn *NN) Close() error {
	if nn == nil || nn.closed {
		return nil
	}
	nn.closed = true
	nn.releaseAll()
	nn.log.Debug("job instance released")
	return nil
}

// SrcCount returns the number of source (input) channels.
func (nn *NN) SrcCount() int { return len(nn.plan.src) }

// DstCount returns the number of destination (output) channels.
func (nn *NN) DstCount() int { return len(nn.plan.dst) }

func (nn *NN) srcChannel(idx int) (*bo, error) {
	if nn.closed {
		return nil, ErrClosed
	}
	if nn.checked && (idx < 0 || idx >= len(nn.plan.src)) {
		return nil, fmt.Errorf("%w: src index %d, have %d", ErrInvalidArg, idx, len(nn.plan.src))
	}
	return nn.chans[nn.plan.src[idx]], nil
}

func (nn *NN) dstChannel(idx int) (*bo, error) {
	if nn.closed {
		return nil, ErrClosed
	}
	if nn.checked && (idx < 0 || idx >= len(nn.plan.dst)) {
		return nil, fmt.Errorf("%w: dst index %d, have %d", ErrInvalidArg, idx, len(nn.plan.dst))
	}
	return nn.chans[nn.plan.dst[idx]], nil
}

// Send copies raw bytes into source channel idx's mapped memory. With index
// checks enabled the write is bounds-checked against the channel size.
func (nn *NN) Send(idx int, data []byte) error {
	b, err := nn.srcChannel(idx)
	if err != nil {
		return err
	}
	if nn.checked && uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %d bytes into %d-byte channel", ErrInvalidArg, len(data), b.size)
	}
	copy(b.buf, data)
	return nil
}

// Read copies raw bytes out of destination channel idx's mapped memory.
func (nn *NN) Read(idx int, out []byte) error {
	b, err := nn.dstChannel(idx)
	if err != nil {
		return err
	}
	if nn.checked && uint64(len(out)) > b.size {
		return fmt.Errorf("%w: %d bytes from %d-byte channel", ErrInvalidArg, len(out), b.size)
	}
	copy(out, b.buf)
	return nil
}

// SrcChan returns source channel idx's mapped memory. Writes land directly
// in device-visible memory.
func (nn *NN) SrcChan(idx int) ([]byte, error) {
	b, err := nn.srcChannel(idx)
	if err != nil {
		return nil, err
	}
	return b.buf, nil
}

// DstChan returns destination channel idx's mapped memory.
func (nn *NN) DstChan(idx int) ([]byte, error) {
	b, err := nn.dstChannel(idx)
	if err != nil {
		return nil, err
	}
	return b.buf, nil
}

// SrcSize returns the byte size of source channel idx.
func (nn *NN) SrcSize(idx int) (uint64, error) {
	b, err := nn.srcChannel(idx)
	if err != nil {
		return 0, err
	}
	return b.size, nil
}

// DstSize returns the byte size of destination channel idx.
func (nn *NN) DstSize(idx int) (uint64, error) {
	b, err := nn.dstChannel(idx)
	if err != nil {
		return 0, err
	}
	return b.size, nil
}

// SrcShape returns the tensor geometry of source channel idx.
func (nn *NN) SrcShape(idx int) (tile.Shape, error) {
	if nn.checked && (idx < 0 || idx >= len(nn.plan.src)) {
		return tile.Shape{}, fmt.Errorf("%w: src index %d", ErrInvalidArg, idx)
	}
	return shapeAt(&nn.model.Header, nn.plan.src[idx]), nil
}

// DstShape returns the tensor geometry of destination channel idx.
func (nn *NN) DstShape(idx int) (tile.Shape, error) {
	if nn.checked && (idx < 0 || idx >= len(nn.plan.dst)) {
		return tile.Shape{}, fmt.Errorf("%w: dst index %d", ErrInvalidArg, idx)
	}
	return shapeAt(&nn.model.Header, nn.plan.dst[idx]), nil
}

func shapeAt(h *anec.Header, bdx int) tile.Shape {
	d := h.NCHW[bdx]
	return tile.Shape{
		N: d[anec.DimN], C: d[anec.DimC],
		H: d[anec.DimH], W: d[anec.DimW],
		P: d[anec.DimP], R: d[anec.DimR],
	}
}

// SendTiled runs the dense tensor through the tiling transform and writes
// the result into source channel idx. The staging tile is zeroed first so
// padding regions in channel memory are clean.
func (nn *NN) SendTiled(idx int, dense []byte) error {
	b, err := nn.srcChannel(idx)
	if err != nil {
		return err
	}
	s := shapeAt(&nn.model.Header, nn.plan.src[idx])

	staged := make([]byte, b.size)
	if err := tile.Tile(staged, dense, s); err != nil {
		return err
	}
	copy(b.buf, staged)
	return nil
}

// ReadTiled reads destination channel idx through the untiling transform
// into the dense buffer.
func (nn *NN) ReadTiled(idx int, dense []byte) error {
	b, err := nn.dstChannel(idx)
	if err != nil {
		return err
	}
	s := shapeAt(&nn.model.Header, nn.plan.dst[idx])

	staged := make([]byte, b.size)
	copy(staged, b.buf)
	return tile.Untile(dense, staged, s)
}

// Exec submits the job and blocks until the device completes it.
func (nn *NN) Exec() error {
	return nn.ExecContext(context.Background())
}

// ExecContext is Exec with an up-front context check. The submission itself
// is a single blocking control request with no cancellation point; a caller
// wanting a deadline must enforce it outside this call.
func (nn *NN) ExecContext(ctx context.Context) error {
	if nn.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	hdr := &nn.model.Header
	req := SubmitRequest{
		TskSize:    hdr.TskSize,
		TDCount:    hdr.TdCount,
		TDSize:     hdr.TdSize,
		BtspHandle: nn.btsp.handle,
	}
	for bdx, b := range nn.chans {
		if b != nil {
			req.Handles[bdx] = b.handle
		}
	}

	if err := nn.dev.Submit(&req); err != nil {
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	return nil
}
