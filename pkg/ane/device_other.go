//go:build !linux

package ane

import "fmt"

// MaxDevices is the number of distinct accelerator instances that can be
// addressed by device id.
const MaxDevices = 2

// Device is one open accelerator instance. The accelerator driver only
// exists on Linux; on other platforms OpenDevice always fails.
type Device struct{}

func OpenDevice(devID int) (*Device, error) {
	return nil, fmt.Errorf("%w: accelerator devices require linux", ErrDeviceNotFound)
}

func (d *Device) Node() string { return "" }
func (d *Device) Close() error { return nil }

func (d *Device) AllocBuffer(size uint64) (uint32, uint64, error) {
	return 0, 0, ErrDeviceNotFound
}
func (d *Device) FreeBuffer(handle uint32) error            { return ErrDeviceNotFound }
func (d *Device) MapBuffer(offset, size uint64) ([]byte, error) { return nil, ErrDeviceNotFound }
func (d *Device) UnmapBuffer(buf []byte) error              { return ErrDeviceNotFound }
func (d *Device) Submit(req *SubmitRequest) error           { return ErrDeviceNotFound }
