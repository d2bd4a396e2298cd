package anec

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt marks a structurally invalid header.
	ErrCorrupt = errors.New("corrupt anec header")

	// ErrShortRead marks a truncated header or payload. Truncation is
	// always fatal: a partially read model is garbage.
	ErrShortRead = errors.New("short read from anec file")
)

func wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
