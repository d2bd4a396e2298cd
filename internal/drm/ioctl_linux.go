//go:build linux

package drm

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Request numbers. Sizes are baked in from the Go struct layouts, which
// mirror the driver headers field for field.
var (
	ioctlVersion = iowr(drmIoctlBase, 0x00, unsafe.Sizeof(Version{}))
	ioctlBoInit  = iowr(drmIoctlBase, drmCommandBase+0x0, unsafe.Sizeof(BoInit{}))
	ioctlBoFree  = iowr(drmIoctlBase, drmCommandBase+0x1, unsafe.Sizeof(BoFree{}))
	ioctlSubmit  = iowr(drmIoctlBase, drmCommandBase+0x2, unsafe.Sizeof(Submit{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// DeviceName queries the DRM driver name behind fd using the two-call
// version protocol: the first call reports the name length, the second
// fills a caller-provided buffer.
func DeviceName(fd int) (string, error) {
	var v Version
	if err := ioctl(fd, ioctlVersion, unsafe.Pointer(&v)); err != nil {
		return "", fmt.Errorf("drm: version query: %w", err)
	}
	if v.NameLen == 0 {
		return "", errors.New("drm: driver reports empty name")
	}

	buf := make([]byte, v.NameLen)
	v.Name = &buf[0]
	v.DateLen = 0
	v.Date = nil
	v.DescLen = 0
	v.Desc = nil
	if err := ioctl(fd, ioctlVersion, unsafe.Pointer(&v)); err != nil {
		return "", fmt.Errorf("drm: version query: %w", err)
	}
	runtime.KeepAlive(buf)

	n := v.NameLen
	if n > uint64(len(buf)) {
		n = uint64(len(buf))
	}
	return string(buf[:n]), nil
}

// BoInitCall allocates a device buffer. The driver fills Handle and Offset.
func BoInitCall(fd int, args *BoInit) error {
	return ioctl(fd, ioctlBoInit, unsafe.Pointer(args))
}

// BoFreeCall releases a device buffer by handle.
func BoFreeCall(fd int, args *BoFree) error {
	return ioctl(fd, ioctlBoFree, unsafe.Pointer(args))
}

// SubmitCall issues one job submission and blocks until the device
// completes or rejects it.
func SubmitCall(fd int, args *Submit) error {
	return ioctl(fd, ioctlSubmit, unsafe.Pointer(args))
}
