package ane

import "errors"

var (
	// ErrInvalidArg marks a bad device id, channel index, or buffer size.
	ErrInvalidArg = errors.New("ane: invalid argument")

	// ErrAllocFailed marks a device-side buffer allocation rejection.
	ErrAllocFailed = errors.New("ane: buffer allocation failed")

	// ErrMapFailed marks a host-side mapping failure of a device buffer.
	ErrMapFailed = errors.New("ane: buffer mapping failed")

	// ErrDeviceNotFound means no probed node matched the accelerator driver.
	ErrDeviceNotFound = errors.New("ane: no device found")

	// ErrSubmitFailed means the device rejected or errored a job submission.
	ErrSubmitFailed = errors.New("ane: job submission failed")

	// ErrClosed marks use of a job instance after Close.
	ErrClosed = errors.New("ane: job instance closed")
)
