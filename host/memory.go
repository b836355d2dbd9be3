package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/roastedroot/quickjs4j/internal/abi"
)

const (
	reallocExport = "canonical_abi_realloc"
	freeExport    = "canonical_abi_free"
)

// allocatorWrapper adapts the guest's allocator exports to
// hostfuncs.GuestAllocator.
type allocatorWrapper struct {
	realloc api.Function
	free    api.Function
}

// wrapAllocator looks up the allocator exports of m.
func wrapAllocator(m api.Module) (*allocatorWrapper, error) {
	realloc := m.ExportedFunction(reallocExport)
	if realloc == nil {
		return nil, fmt.Errorf("guest does not export %q", reallocExport)
	}
	free := m.ExportedFunction(freeExport)
	if free == nil {
		return nil, fmt.Errorf("guest does not export %q", freeExport)
	}
	return &allocatorWrapper{realloc: realloc, free: free}, nil
}

// Realloc calls canonical_abi_realloc. A zero address is reported as
// abi.ErrOutOfMemory.
func (a *allocatorWrapper) Realloc(ctx context.Context, origAddr, origSize, align, newSize uint32) (uint32, error) {
	results, err := a.realloc.Call(ctx,
		api.EncodeU32(origAddr), api.EncodeU32(origSize), api.EncodeU32(align), api.EncodeU32(newSize))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	addr := api.DecodeU32(results[0])
	if addr == 0 {
		return 0, fmt.Errorf("allocate %d bytes: %w", newSize, abi.ErrOutOfMemory)
	}
	return addr, nil
}

// Free calls canonical_abi_free.
func (a *allocatorWrapper) Free(ctx context.Context, addr, size, align uint32) error {
	if _, err := a.free.Call(ctx, api.EncodeU32(addr), api.EncodeU32(size), api.EncodeU32(align)); err != nil {
		return fmt.Errorf("free failed: %w", err)
	}
	return nil
}
