//go:build wasip1

package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// DefaultMaxTotalAllocations bounds how much the host can pin in the guest
// heap through canonical_abi_realloc.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// heapBacking serves allocations from the Go heap. Each region is a slice
// kept in a map keyed by its aligned address so the GC cannot collect memory
// the host still refers to.
type heapBacking struct {
	sync.Mutex
	pinned         map[uint32]pinnedRegion
	totalAllocated int
	maxTotal       int
}

// pinnedRegion is one live allocation. size and align are the values it was
// requested with; buf may be larger to leave room for alignment.
type pinnedRegion struct {
	buf   []byte
	size  uint32
	align uint32
}

var heap = &heapBacking{
	pinned:   make(map[uint32]pinnedRegion),
	maxTotal: DefaultMaxTotalAllocations,
}

// HeapOption configures the wasip1 heap backing.
type HeapOption func(*heapBacking)

// WithMaxTotalAllocations sets the total allocation limit in bytes.
// Non-positive values are ignored.
func WithMaxTotalAllocations(limit int) HeapOption {
	return func(h *heapBacking) {
		if limit > 0 {
			h.maxTotal = limit
		}
	}
}

// Configure applies options to the heap backing.
func Configure(opts ...HeapOption) {
	heap.Lock()
	defer heap.Unlock()
	for _, opt := range opts {
		opt(heap)
	}
}

// Alloc implements Backing.
func (h *heapBacking) Alloc(size, align uint32) (uint32, error) {
	h.Lock()
	defer h.Unlock()

	if h.totalAllocated+int(size) > h.maxTotal {
		return 0, fmt.Errorf("heap: requested %d bytes with %d of %d in use: %w",
			size, h.totalAllocated, h.maxTotal, ErrOutOfMemory)
	}

	buf := make([]byte, int(size)+int(align)-1)
	base := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	addr := uint32(alignUp(uint64(base), uint64(align)))

	h.pinned[addr] = pinnedRegion{buf: buf, size: size, align: align}
	h.totalAllocated += int(size)
	return addr, nil
}

// Release implements Backing. The accounting uses the recorded size, never
// the caller's.
func (h *heapBacking) Release(addr, size, align uint32) {
	h.Lock()
	defer h.Unlock()

	region, ok := h.pinned[addr]
	if !ok {
		panic(violation("free of %#x (size %d, align %d) which is not allocated", addr, size, align))
	}
	if region.size != size || region.align != align {
		panic(violation("free of %#x with (size %d, align %d), allocated with (size %d, align %d)",
			addr, size, align, region.size, region.align))
	}
	delete(h.pinned, addr)
	h.totalAllocated -= int(region.size)
}

// HeapStats returns the number of pinned regions and the bytes they hold.
func HeapStats() (count int, totalBytes int) {
	heap.Lock()
	defer heap.Unlock()
	return len(heap.pinned), heap.totalAllocated
}

// linearMemory addresses the module's own linear memory directly.
type linearMemory struct{}

func (linearMemory) Read(offset, length uint32) ([]byte, bool) {
	if length == 0 {
		return nil, true
	}
	//nolint:gosec // G103: linear memory offsets are real pointers in wasm
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), length), true
}

func (m linearMemory) Write(offset uint32, data []byte) bool {
	dst, _ := m.Read(offset, uint32(len(data)))
	copy(dst, data)
	return true
}

func (linearMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	//nolint:gosec // G103: linear memory offsets are real pointers in wasm
	b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), 4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

func (linearMemory) WriteUint32Le(offset, value uint32) bool {
	//nolint:gosec // G103: linear memory offsets are real pointers in wasm
	b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), 4)
	b[0], b[1], b[2], b[3] = byte(value), byte(value>>8), byte(value>>16), byte(value>>24)
	return true
}
