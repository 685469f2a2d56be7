package stakeledger

import (
	"errors"
	"fmt"
)

// ErrHalted is returned by reads and gate checks once the node has
// halted.
var ErrHalted = errors.New("stakeledger: node halted")

// HaltError signals that the application detected an irrecoverable
// inconsistency and requests an immediate node halt.
//
// When the engine receives a HaltError from any lifecycle call, it
// must stop consensus, log the error, and not proceed with the block.
// A HaltError from Commit means the store write failed and the state
// root must not be announced.
type HaltError struct {
	Reason string
	Height uint64
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("HALT at height %d: %s", e.Height, e.Reason)
}

// NewHaltError creates a new HaltError.
func NewHaltError(height uint64, reason string) *HaltError {
	return &HaltError{Height: height, Reason: reason}
}

// Haltf creates a HaltError with a formatted reason.
func Haltf(height uint64, format string, args ...any) *HaltError {
	return &HaltError{Height: height, Reason: fmt.Sprintf(format, args...)}
}

// IsHalt checks whether an error is a HaltError and returns it.
func IsHalt(err error) (*HaltError, bool) {
	var h *HaltError
	if errors.As(err, &h) {
		return h, true
	}
	return nil, false
}
