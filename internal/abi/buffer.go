package abi

import (
	"fmt"
	"math"
)

// Buffer is a region of guest memory owned by the holder.
//
// Ownership moves from the allocator to the holder when the Buffer is
// acquired or adopted, and back when Release is called. Release frees with
// the recorded size and alignment and does nothing on later calls, so a
// deferred Release is the one place a region is returned on every path.
type Buffer struct {
	alloc    *Allocator
	addr     uint32
	size     uint32
	align    uint32
	released bool
}

// Acquire allocates a fresh Buffer of size bytes.
func Acquire(a *Allocator, size, align uint32) *Buffer {
	addr := a.Realloc(0, 0, align, size)
	return &Buffer{alloc: a, addr: addr, size: size, align: align}
}

// Adopt takes ownership of a region that was allocated through a's exports,
// typically by the host on the guest's behalf.
func Adopt(a *Allocator, addr, size, align uint32) *Buffer {
	return &Buffer{alloc: a, addr: addr, size: size, align: align}
}

// Stage copies data into a fresh Buffer with alignment 1.
// An empty slice yields a zero-sized Buffer at ZeroSizeSentinel.
func Stage(a *Allocator, data []byte) *Buffer {
	if uint64(len(data)) > math.MaxUint32 {
		panic(violation("cannot stage %d bytes in a 32-bit address space", len(data)))
	}
	b := Acquire(a, uint32(len(data)), 1)
	if err := b.Write(0, data); err != nil {
		b.Release()
		panic(err)
	}
	return b
}

// Addr returns the region's address.
func (b *Buffer) Addr() uint32 { return b.addr }

// Len returns the region's size in bytes.
func (b *Buffer) Len() uint32 { return b.size }

// Align returns the region's alignment.
func (b *Buffer) Align() uint32 { return b.align }

// Released reports whether the region has been given back.
func (b *Buffer) Released() bool { return b.released }

// View returns the region's bytes without copying. The slice is only valid
// until the Buffer is released or the allocator runs again.
func (b *Buffer) View() ([]byte, error) {
	if b.released {
		return nil, violation("use of released buffer %#x", b.addr)
	}
	if b.size == 0 {
		return nil, nil
	}
	data, ok := b.alloc.Memory().Read(b.addr, b.size)
	if !ok {
		return nil, outOfBounds(b.addr, b.size)
	}
	return data, nil
}

// Bytes returns a copy of the region's contents.
func (b *Buffer) Bytes() ([]byte, error) {
	data, err := b.View()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write copies data into the region at offset, bounded by the region size.
func (b *Buffer) Write(offset uint32, data []byte) error {
	if b.released {
		return violation("write to released buffer %#x", b.addr)
	}
	if uint64(offset)+uint64(len(data)) > uint64(b.size) {
		return fmt.Errorf("abi: write of %d bytes at offset %d overflows %d byte buffer: %w",
			len(data), offset, b.size, ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}
	if !b.alloc.Memory().Write(b.addr+offset, data) {
		return outOfBounds(b.addr+offset, uint32(len(data)))
	}
	return nil
}

// Release frees the region exactly once.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.alloc.Free(b.addr, b.size, b.align)
}
