package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidText is wrapped by DecodeError when a result is not UTF-8.
	ErrInvalidText = errors.New("result is not valid UTF-8")

	// ErrNullDescriptor marks a host that returned no wide pointer. The host
	// contract guarantees a descriptor, so the Invoker panics with it.
	ErrNullDescriptor = errors.New("host returned a null wide pointer")
)

// DecodeError reports a result payload that could not be turned into text.
// The buffers behind it have already been freed when it is returned.
type DecodeError struct {
	Err    error
	Len    uint32 // payload length in bytes
	Offset int    // index of the first invalid byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bridge: decode %d byte result: invalid byte at offset %d: %v", e.Len, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
