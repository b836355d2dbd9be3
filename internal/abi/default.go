package abi

var defaultAllocator = newDefaultAllocator()

// Default returns the process-wide allocator behind the exported
// canonical_abi_realloc and canonical_abi_free entry points.
func Default() *Allocator {
	return defaultAllocator
}

// SetDefault replaces the process-wide allocator and returns a function that
// restores the previous one. It exists for tests on native builds.
func SetDefault(a *Allocator) (restore func()) {
	prev := defaultAllocator
	defaultAllocator = a
	return func() { defaultAllocator = prev }
}
