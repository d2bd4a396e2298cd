// Package tile converts dense NCHW tensors to and from the padded, strided
// channel layout the accelerator operates on.
//
// Elements are 2-byte words (raw fp16). A channel plane of logical height H
// and width W lives in a padded grid of P/R rows by R/2 columns; only the
// leading W elements of the leading H rows carry data, the rest is padding.
// Both transforms are pure and never touch device resources.
package tile

import (
	"errors"
	"fmt"
)

// ElemSize is the byte size of one tensor element.
const ElemSize = 2

var errShape = errors.New("tile: invalid shape")

// Shape describes one channel's tensor geometry: logical dimensions
// N, C, H, W plus the padded plane pitch P and padded row size R, both in
// bytes.
type Shape struct {
	N, C, H, W uint64
	P, R       uint64
}

// PaddedH is the number of rows in the padded grid.
func (s Shape) PaddedH() uint64 { return s.P / s.R }

// PaddedW is the number of elements per padded row.
func (s Shape) PaddedW() uint64 { return s.R / ElemSize }

// DenseBytes is the byte size of the packed tensor.
func (s Shape) DenseBytes() uint64 { return s.N * s.C * s.H * s.W * ElemSize }

// TiledBytes is the byte size of the padded layout.
func (s Shape) TiledBytes() uint64 { return s.N * s.C * s.P }

// Validate reports whether the shape is internally consistent.
func (s Shape) Validate() error {
	if s.N == 0 || s.C == 0 || s.H == 0 || s.W == 0 {
		return fmt.Errorf("%w: zero dimension in %v", errShape, s)
	}
	if s.R == 0 || s.R%ElemSize != 0 {
		return fmt.Errorf("%w: row size %d not a multiple of element size", errShape, s.R)
	}
	if s.P == 0 || s.P%s.R != 0 {
		return fmt.Errorf("%w: pitch %d not a multiple of row size %d", errShape, s.P, s.R)
	}
	if s.W > s.PaddedW() {
		return fmt.Errorf("%w: width %d exceeds padded width %d", errShape, s.W, s.PaddedW())
	}
	if s.H > s.PaddedH() {
		return fmt.Errorf("%w: height %d exceeds padded height %d", errShape, s.H, s.PaddedH())
	}
	return nil
}

// Tile copies a dense tensor into the padded layout. Only the data region
// of each plane is written; padding rows and columns keep whatever the
// destination already holds, so callers wanting a clean tile must zero it
// first.
func Tile(tiled, dense []byte, s Shape) error {
	if err := checkBuffers(tiled, dense, s); err != nil {
		return err
	}

	rowBytes := s.W * ElemSize
	padW := s.PaddedW()
	padH := s.PaddedH()
	for n := uint64(0); n < s.N; n++ {
		for c := uint64(0); c < s.C; c++ {
			for h := uint64(0); h < s.H; h++ {
				src := ((n*s.C+c)*s.H + h) * s.W * ElemSize
				dst := ((n*s.C+c)*padH + h) * padW * ElemSize
				copy(tiled[dst:dst+rowBytes], dense[src:src+rowBytes])
			}
		}
	}
	return nil
}

// Untile copies a padded layout back into a dense tensor. The dense buffer
// is zeroed up front; every position the padded layout does not cover reads
// as zero afterwards.
func Untile(dense, tiled []byte, s Shape) error {
	if err := checkBuffers(tiled, dense, s); err != nil {
		return err
	}

	clear(dense[:s.DenseBytes()])

	rowBytes := s.W * ElemSize
	padW := s.PaddedW()
	padH := s.PaddedH()
	for n := uint64(0); n < s.N; n++ {
		for c := uint64(0); c < s.C; c++ {
			for h := uint64(0); h < s.H; h++ {
				src := ((n*s.C+c)*padH + h) * padW * ElemSize
				dst := ((n*s.C+c)*s.H + h) * s.W * ElemSize
				copy(dense[dst:dst+rowBytes], tiled[src:src+rowBytes])
			}
		}
	}
	return nil
}

func checkBuffers(tiled, dense []byte, s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if uint64(len(dense)) < s.DenseBytes() {
		return fmt.Errorf("%w: dense buffer %d bytes, need %d", errShape, len(dense), s.DenseBytes())
	}
	if uint64(len(tiled)) < s.TiledBytes() {
		return fmt.Errorf("%w: tiled buffer %d bytes, need %d", errShape, len(tiled), s.TiledBytes())
	}
	return nil
}
