//go:build wasip1

package abi

// canonicalAbiRealloc lets the host allocate guest memory, for example to
// hand back a result payload and the wide pointer describing it.
//
//go:wasmexport canonical_abi_realloc
func canonicalAbiRealloc(origPtr, origSize, align, newSize uint32) uint32 {
	return Default().Realloc(origPtr, origSize, align, newSize)
}

// canonicalAbiFree releases memory obtained from canonical_abi_realloc.
//
//go:wasmexport canonical_abi_free
func canonicalAbiFree(ptr, size, align uint32) {
	Default().Free(ptr, size, align)
}
