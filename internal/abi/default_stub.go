//go:build !wasip1

package abi

// newDefaultAllocator backs native builds with an Arena, which acts as both
// the backing and the linear memory.
func newDefaultAllocator() *Allocator {
	arena := NewArena()
	return NewAllocator(arena, arena)
}
