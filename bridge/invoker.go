package bridge

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/roastedroot/quickjs4j/internal/abi"
)

// Import is a raw cross-boundary call: plain i32 parameters in, one i32 out.
// Imports without a result return 0.
type Import func(ctx context.Context, params ...uint32) uint32

// Invoker binds one host import to the allocator whose memory the host reads
// arguments from and writes results into.
type Invoker struct {
	alloc *abi.Allocator
	call  Import
}

// NewInvoker creates an Invoker for call. A nil alloc means abi.Default(),
// looked up again on every call.
func NewInvoker(alloc *abi.Allocator, call Import) *Invoker {
	return &Invoker{alloc: alloc, call: call}
}

func (i *Invoker) allocator() *abi.Allocator {
	if i.alloc != nil {
		return i.alloc
	}
	return abi.Default()
}

// Invoke passes args to the import as (address, length) pairs and returns
// the text the host answered with.
//
// A result that is not valid UTF-8 yields a *DecodeError. Every buffer the
// call touched has been freed by the time Invoke returns, on both paths.
func (i *Invoker) Invoke(ctx context.Context, args ...string) (string, error) {
	alloc := i.allocator()
	params, release := stage(alloc, args)
	defer release()

	desc := i.call(ctx, params...)
	return readResult(alloc, desc)
}

// Notify passes args to an import that returns nothing.
func (i *Invoker) Notify(ctx context.Context, args ...string) {
	params, release := stage(i.allocator(), args)
	defer release()

	i.call(ctx, params...)
}

// Call performs the import with scalar parameters only. No memory is
// allocated or freed.
func (i *Invoker) Call(ctx context.Context, scalars ...uint32) uint32 {
	return i.call(ctx, scalars...)
}

// JavaInvoke calls a host builtin: module and name select the function,
// args is its JSON-encoded argument array. The result is the JSON-encoded
// return value.
func (i *Invoker) JavaInvoke(ctx context.Context, module, name, args string) (string, error) {
	return i.Invoke(ctx, module, name, args)
}

// stage copies each argument into its own buffer and returns the flattened
// (address, length) parameter list with a function releasing the buffers.
func stage(alloc *abi.Allocator, args []string) ([]uint32, func()) {
	bufs := make([]*abi.Buffer, 0, len(args))
	release := func() {
		for _, b := range bufs {
			b.Release()
		}
	}

	params := make([]uint32, 0, 2*len(args))
	for _, arg := range args {
		b := abi.Stage(alloc, []byte(arg))
		bufs = append(bufs, b)
		params = append(params, b.Addr(), b.Len())
	}
	return params, release
}

// readResult takes ownership of the descriptor at addr and of the payload it
// describes. The payload is released first, then the descriptor.
func readResult(alloc *abi.Allocator, addr uint32) (string, error) {
	if addr == 0 || addr == abi.ZeroSizeSentinel {
		panic(fmt.Errorf("bridge: descriptor address %#x: %w", addr, ErrNullDescriptor))
	}

	desc := abi.Adopt(alloc, addr, abi.WidePointerSize, abi.WidePointerAlign)
	defer desc.Release()

	raw, err := desc.View()
	if err != nil {
		return "", fmt.Errorf("bridge: read descriptor: %w", err)
	}
	wp, err := abi.DecodeWidePointer(raw)
	if err != nil {
		return "", fmt.Errorf("bridge: read descriptor: %w", err)
	}

	payload := abi.Adopt(alloc, wp.Addr, wp.Len, 1)
	defer payload.Release()

	data, err := payload.View()
	if err != nil {
		return "", fmt.Errorf("bridge: read result: %w", err)
	}
	if !utf8.Valid(data) {
		return "", &DecodeError{Err: ErrInvalidText, Len: wp.Len, Offset: firstInvalid(data)}
	}
	return string(data), nil
}

func firstInvalid(data []byte) int {
	for off := 0; off < len(data); {
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size <= 1 {
			return off
		}
		off += size
	}
	return len(data)
}
