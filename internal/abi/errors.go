package abi

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is reported by a Backing that cannot satisfy a request.
	// The Allocator turns it into a panic: there is no recoverable
	// out-of-memory path at this layer.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrContractViolation marks a programming error in a caller of the
	// allocator: shrinking realloc, bad alignment, reentrant calls, or a free
	// that does not match its allocation.
	ErrContractViolation = errors.New("allocator contract violation")

	// ErrOutOfBounds is returned when an address range does not fit in memory.
	ErrOutOfBounds = errors.New("memory access out of bounds")
)

func violation(format string, args ...any) error {
	return fmt.Errorf("abi: %s: %w", fmt.Sprintf(format, args...), ErrContractViolation)
}

func outOfBounds(addr, length uint32) error {
	return fmt.Errorf("abi: range [%#x, +%d): %w", addr, length, ErrOutOfBounds)
}
