//go:build wasip1

package abi

func newDefaultAllocator() *Allocator {
	return NewAllocator(heap, linearMemory{})
}
