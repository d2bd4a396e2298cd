//go:build linux

package ane

import (
	"errors"
	"testing"
)

// fakeProbe pretends that only the listed nodes host a matching device.
func fakeProbe(nodes ...string) probeFunc {
	ok := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ok[n] = true
	}
	return func(node string) (*Device, error) {
		if !ok[node] {
			return nil, errors.New("no such node")
		}
		return &Device{fd: -1, node: node}, nil
	}
}

func TestFindDeviceSingleNode(t *testing.T) {
	t.Parallel()

	probe := fakeProbe("/dev/accel/accel1")

	dev, err := findDevice(0, probe)
	if err != nil {
		t.Fatalf("findDevice(0): %v", err)
	}
	if dev.Node() != "/dev/accel/accel1" {
		t.Fatalf("node = %q, want accel1", dev.Node())
	}
	_ = dev.Close()

	if _, err := findDevice(1, probe); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("findDevice(1) = %v, want ErrDeviceNotFound", err)
	}
}

func TestFindDeviceOrdering(t *testing.T) {
	t.Parallel()

	probe := fakeProbe("/dev/accel/accel2", "/dev/accel/accel5")

	dev0, err := findDevice(0, probe)
	if err != nil {
		t.Fatalf("findDevice(0): %v", err)
	}
	if dev0.Node() != "/dev/accel/accel2" {
		t.Errorf("device 0 node = %q, want accel2", dev0.Node())
	}
	dev1, err := findDevice(1, probe)
	if err != nil {
		t.Fatalf("findDevice(1): %v", err)
	}
	if dev1.Node() != "/dev/accel/accel5" {
		t.Errorf("device 1 node = %q, want accel5", dev1.Node())
	}
}

func TestFindDeviceBadID(t *testing.T) {
	t.Parallel()

	probe := fakeProbe("/dev/accel/accel0")
	if _, err := findDevice(-1, probe); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("findDevice(-1) = %v, want ErrInvalidArg", err)
	}
	if _, err := findDevice(MaxDevices, probe); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("findDevice(MaxDevices) = %v, want ErrInvalidArg", err)
	}
}
