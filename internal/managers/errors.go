package managers

import (
	"errors"
	"fmt"
)

var (
	// ErrPrerequisiteMissing indicates a tool needed to install a backend is absent.
	ErrPrerequisiteMissing = errors.New("prerequisite missing")

	// ErrPlatformNotSupported indicates no install procedure exists for this OS.
	ErrPlatformNotSupported = errors.New("platform not supported")

	// ErrUnknownBackend indicates a backend name outside the known set.
	ErrUnknownBackend = errors.New("unknown backend")
)

// Error wraps a backend failure with the operation and backend involved.
type Error struct {
	Op      string // Operation that failed
	Backend string // Backend name
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Backend, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
