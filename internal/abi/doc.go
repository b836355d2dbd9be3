// Package abi implements the guest side of the boundary allocator.
//
// The host and the guest share one flat 32-bit address space (the module's
// linear memory). Variable-length data crossing the boundary lives in buffers
// obtained from Allocator.Realloc and returned with Allocator.Free, following
// the caller-allocates, callee-frees convention of canonical_abi_realloc and
// canonical_abi_free. Every free must repeat the exact size and alignment the
// region was allocated with.
//
// Under wasip1 the package exports both entry points and backs them with the
// Go heap. Native builds use an Arena, a bump allocator over a byte slice that
// also serves as the linear memory, so the protocol can be exercised in tests.
package abi
