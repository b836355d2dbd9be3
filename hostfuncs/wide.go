package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/roastedroot/quickjs4j/internal/abi"
)

// GuestMemory is the guest's linear memory as seen from the host. It is
// satisfied by wazero's api.Memory.
type GuestMemory = abi.Memory

// GuestAllocator reaches the guest's exported allocator.
type GuestAllocator interface {
	// Realloc calls canonical_abi_realloc.
	Realloc(ctx context.Context, origAddr, origSize, align, newSize uint32) (uint32, error)
	// Free calls canonical_abi_free.
	Free(ctx context.Context, addr, size, align uint32) error
}

// ReadString copies length bytes at addr out of guest memory. A zero length
// never touches memory, so the zero-size sentinel address is accepted.
func ReadString(mem GuestMemory, addr, length, limit uint32) (string, error) {
	if limit > 0 && length > limit {
		return "", fmt.Errorf("%d bytes exceeds limit of %d: %w", length, limit, ErrRequestTooLarge)
	}
	if length == 0 {
		return "", nil
	}
	data, ok := mem.Read(addr, length)
	if !ok {
		return "", fmt.Errorf("read %d bytes at %#x: %w", length, addr, abi.ErrOutOfBounds)
	}
	return string(data), nil
}

// WriteResult hands data to the guest: it allocates and fills the payload,
// then allocates the descriptor and writes the wide pointer into it. The
// returned descriptor address, and the payload it points to, belong to the
// guest from then on.
func WriteResult(ctx context.Context, mem GuestMemory, alloc GuestAllocator, data []byte) (uint32, error) {
	size, err := resultSize(len(data))
	if err != nil {
		return 0, err
	}
	payload, err := alloc.Realloc(ctx, 0, 0, 1, size)
	if err != nil {
		return 0, fmt.Errorf("allocate result payload: %w", err)
	}
	if size > 0 && !mem.Write(payload, data) {
		return 0, errors.Join(
			fmt.Errorf("write result payload at %#x: %w", payload, abi.ErrOutOfBounds),
			alloc.Free(ctx, payload, size, 1))
	}

	desc, err := alloc.Realloc(ctx, 0, 0, abi.WidePointerAlign, abi.WidePointerSize)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("allocate result descriptor: %w", err), alloc.Free(ctx, payload, size, 1))
	}
	if err := abi.WriteWidePointer(mem, desc, abi.WidePointer{Addr: payload, Len: size}); err != nil {
		return 0, errors.Join(err,
			alloc.Free(ctx, payload, size, 1),
			alloc.Free(ctx, desc, abi.WidePointerSize, abi.WidePointerAlign))
	}
	return desc, nil
}

// resultSize checks that n bytes can be described by a wide pointer.
func resultSize(n int) (uint32, error) {
	if uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("result of %d bytes does not fit a 32-bit length: %w", n, ErrResultTooLarge)
	}
	return uint32(n), nil
}

// ReadWide copies out the bytes described by the wide pointer at desc.
func ReadWide(mem GuestMemory, desc uint32) ([]byte, abi.WidePointer, error) {
	wp, err := abi.ReadWidePointer(mem, desc)
	if err != nil {
		return nil, wp, err
	}
	if wp.Len == 0 {
		return []byte{}, wp, nil
	}
	data, ok := mem.Read(wp.Addr, wp.Len)
	if !ok {
		return nil, wp, fmt.Errorf("read %d bytes at %#x: %w", wp.Len, wp.Addr, abi.ErrOutOfBounds)
	}
	return append([]byte(nil), data...), wp, nil
}

// FreeWide releases the payload described by desc, then desc itself.
func FreeWide(ctx context.Context, mem GuestMemory, alloc GuestAllocator, desc uint32) error {
	wp, err := abi.ReadWidePointer(mem, desc)
	if err != nil {
		return err
	}
	if err := alloc.Free(ctx, wp.Addr, wp.Len, 1); err != nil {
		return fmt.Errorf("free payload: %w", err)
	}
	if err := alloc.Free(ctx, desc, abi.WidePointerSize, abi.WidePointerAlign); err != nil {
		return fmt.Errorf("free descriptor: %w", err)
	}
	return nil
}

// localAllocator adapts an in-process abi.Allocator to GuestAllocator,
// turning its panics into errors the way a trapped export call would.
type localAllocator struct {
	alloc *abi.Allocator
}

// LocalAllocator returns a GuestAllocator backed by alloc. It lets the host
// half of the protocol run against simulated guest memory.
func LocalAllocator(alloc *abi.Allocator) GuestAllocator {
	return localAllocator{alloc: alloc}
}

func (l localAllocator) Realloc(_ context.Context, origAddr, origSize, align, newSize uint32) (addr uint32, err error) {
	defer recoverTrap(&err)
	return l.alloc.Realloc(origAddr, origSize, align, newSize), nil
}

func (l localAllocator) Free(_ context.Context, addr, size, align uint32) (err error) {
	defer recoverTrap(&err)
	l.alloc.Free(addr, size, align)
	return nil
}

func recoverTrap(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = fmt.Errorf("guest trap: %v", r)
	}
}
