package ane

import "github.com/samcharles93/anekit/internal/logger"

// Option configures a job instance at Attach time.
type Option func(*NN)

// WithLogger injects a logger. The default is a no-op logger; nothing is
// printed unless the caller opts in.
func WithLogger(log logger.Logger) Option {
	return func(nn *NN) {
		if log != nil {
			nn.log = log
		}
	}
}

// WithIndexChecks selects between checked and unchecked channel indexing.
// Checked (the default) makes out-of-range source/destination indices
// return ErrInvalidArg; unchecked skips the range test on the hot path and
// an out-of-range index panics instead.
func WithIndexChecks(enabled bool) Option {
	return func(nn *NN) {
		nn.checked = enabled
	}
}
