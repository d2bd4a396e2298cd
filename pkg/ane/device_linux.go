//go:build linux

package ane

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/samcharles93/anekit/internal/drm"
)

const (
	// driverName is the DRM driver name an accelerator node must report.
	driverName = "ane"

	// MaxDevices is the number of distinct accelerator instances that can
	// be addressed by device id.
	MaxDevices = 2

	// maxNodeCount bounds the probe over /dev/accel entries.
	maxNodeCount = 64
)

// Device is one open accelerator instance. It implements Transport over the
// kernel driver's control interface.
type Device struct {
	fd   int
	node string
}

// OpenDevice opens the dev-id'th accelerator, counting matching nodes in
// probe order. Candidate nodes that cannot be opened or do not report the
// accelerator driver name are skipped.
func OpenDevice(devID int) (*Device, error) {
	return findDevice(devID, probeNode)
}

type probeFunc func(node string) (*Device, error)

func findDevice(devID int, probe probeFunc) (*Device, error) {
	if devID < 0 || devID >= MaxDevices {
		return nil, fmt.Errorf("%w: device id %d, want 0..%d", ErrInvalidArg, devID, MaxDevices-1)
	}

	found := 0
	for i := 0; i < maxNodeCount; i++ {
		node := fmt.Sprintf("/dev/accel/accel%d", i)
		dev, err := probe(node)
		if err != nil {
			continue
		}
		if found == devID {
			return dev, nil
		}
		found++
		_ = dev.Close()
	}
	return nil, fmt.Errorf("%w: device id %d", ErrDeviceNotFound, devID)
}

// probeNode opens a candidate node and keeps it only if the reported DRM
// driver name matches.
func probeNode(node string) (*Device, error) {
	fd, err := unix.Open(node, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	name, err := drm.DeviceName(fd)
	if err != nil || name != driverName {
		_ = unix.Close(fd)
		if err == nil {
			err = fmt.Errorf("node %s: driver %q", node, name)
		}
		return nil, err
	}
	return &Device{fd: fd, node: node}, nil
}

// Node returns the device node path this handle was opened from.
func (d *Device) Node() string { return d.node }

// Close releases the device handle. Safe on an already-closed device.
func (d *Device) Close() error {
	if d == nil || d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// AllocBuffer implements Transport.
func (d *Device) AllocBuffer(size uint64) (uint32, uint64, error) {
	args := drm.BoInit{Size: size}
	if err := drm.BoInitCall(d.fd, &args); err != nil {
		return 0, 0, err
	}
	return args.Handle, args.Offset, nil
}

// FreeBuffer implements Transport.
func (d *Device) FreeBuffer(handle uint32) error {
	args := drm.BoFree{Handle: handle}
	return drm.BoFreeCall(d.fd, &args)
}

// MapBuffer implements Transport. The returned slice is shared read/write
// with the device.
func (d *Device) MapBuffer(offset, size uint64) ([]byte, error) {
	return unix.Mmap(d.fd, int64(offset), int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// UnmapBuffer implements Transport.
func (d *Device) UnmapBuffer(buf []byte) error {
	return unix.Munmap(buf)
}

// Submit implements Transport. Blocks in the driver until the job is done.
func (d *Device) Submit(req *SubmitRequest) error {
	args := drm.Submit{
		TskSize:    req.TskSize,
		TDCount:    uint64(req.TDCount),
		TDSize:     uint64(req.TDSize),
		BtspHandle: req.BtspHandle,
	}
	copy(args.Handles[:], req.Handles[:])
	return drm.SubmitCall(d.fd, &args)
}
