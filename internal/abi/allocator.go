package abi

import (
	"fmt"
	"math/bits"
)

// ZeroSizeSentinel is returned for zero-byte allocations. It is non-null so
// callers that treat 0 as failure stay happy, and it is never dereferenced.
const ZeroSizeSentinel uint32 = 1

// Allocator implements the canonical_abi_realloc / canonical_abi_free pair on
// top of a Backing and the Memory that backing carves regions out of.
//
// It is not safe for concurrent or reentrant use. The guest runs one call to
// completion before the host issues the next, and a nested entry is reported
// as a contract violation instead of silently corrupting the backing.
type Allocator struct {
	backing Backing
	mem     Memory
	depth   int
}

// NewAllocator creates an Allocator drawing from backing, whose regions are
// addressable through mem.
func NewAllocator(backing Backing, mem Memory) *Allocator {
	return &Allocator{backing: backing, mem: mem}
}

// Memory returns the linear memory the allocator hands out addresses in.
func (a *Allocator) Memory() Memory {
	return a.mem
}

// Realloc allocates newSize bytes aligned to align.
//
// Only growth is supported: newSize must be at least origSize. When origAddr
// refers to a previous allocation (origSize > 0), its contents are copied to
// the new region and the old region is freed with (origSize, align). A
// request for zero bytes returns ZeroSizeSentinel without touching the
// backing.
//
// Realloc panics on contract violations and when the backing is exhausted.
func (a *Allocator) Realloc(origAddr, origSize, align, newSize uint32) uint32 {
	a.enter("realloc")
	defer a.leave()

	checkAlign(align)
	if newSize < origSize {
		panic(violation("realloc cannot shrink %#x from %d to %d bytes", origAddr, origSize, newSize))
	}
	if newSize == 0 {
		return ZeroSizeSentinel
	}

	addr, err := a.backing.Alloc(newSize, align)
	if err != nil {
		panic(fmt.Errorf("abi: allocate %d bytes at align %d: %w", newSize, align, err))
	}
	if addr == 0 || addr%align != 0 {
		panic(fmt.Errorf("abi: backing returned unusable address %#x for align %d: %w", addr, align, ErrOutOfMemory))
	}

	if !isNull(origAddr) && origSize != 0 {
		old, ok := a.mem.Read(origAddr, origSize)
		if !ok {
			panic(violation("realloc source %#x (+%d) is out of bounds", origAddr, origSize))
		}
		if !a.mem.Write(addr, old) {
			panic(outOfBounds(addr, newSize))
		}
		a.backing.Release(origAddr, origSize, align)
	}
	return addr
}

// Free returns a region obtained from Realloc. size and align must be the
// values it was allocated with. Freeing a zero-sized region is a no-op,
// whatever the address.
func (a *Allocator) Free(addr, size, align uint32) {
	a.enter("free")
	defer a.leave()

	if size == 0 {
		return
	}
	checkAlign(align)
	if isNull(addr) {
		panic(violation("free of null address with size %d", size))
	}
	a.backing.Release(addr, size, align)
}

func (a *Allocator) enter(op string) {
	if a.depth > 0 {
		panic(violation("reentrant %s while another allocator call is in progress", op))
	}
	a.depth++
}

func (a *Allocator) leave() {
	a.depth--
}

func checkAlign(align uint32) {
	if align == 0 || bits.OnesCount32(align) != 1 {
		panic(violation("alignment %d is not a power of two", align))
	}
}

func isNull(addr uint32) bool {
	return addr == 0 || addr == ZeroSizeSentinel
}
