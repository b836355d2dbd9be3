package abi

// Memory is a view of the guest's linear memory.
//
// The method set matches the subset of wazero's api.Memory the bridge needs,
// so a host can hand the guest-side codecs its own memory without copying.
// Read may return a slice aliasing the memory; callers that keep the bytes
// past the next allocation must copy them.
type Memory interface {
	// Read returns length bytes starting at offset, or false if out of range.
	Read(offset, length uint32) ([]byte, bool)

	// Write copies data to offset, returning false if out of range.
	Write(offset uint32, data []byte) bool

	// ReadUint32Le reads a little-endian uint32 at offset.
	ReadUint32Le(offset uint32) (uint32, bool)

	// WriteUint32Le writes a little-endian uint32 at offset.
	WriteUint32Le(offset, value uint32) bool
}

// Backing is the underlying allocator the boundary allocator draws from.
//
// Alloc must return a non-zero address aligned to align, or an error wrapping
// ErrOutOfMemory. Release receives the exact size and align of the matching
// Alloc; the Allocator never passes zero-sized regions to it.
type Backing interface {
	Alloc(size, align uint32) (uint32, error)
	Release(addr, size, align uint32)
}
