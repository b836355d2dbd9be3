package abi

import (
	"encoding/binary"
	"fmt"
)

const (
	// WidePointerSize is the encoded size of a WidePointer.
	WidePointerSize = 8

	// WidePointerAlign is the alignment descriptors are allocated with.
	WidePointerAlign = 1
)

// WidePointer is the two-word descriptor [data_address, data_length] the
// host returns for variable-length results. Both words are little-endian
// uint32 with no padding.
type WidePointer struct {
	Addr uint32
	Len  uint32
}

// Encode returns the wire form of w.
func (w WidePointer) Encode() [WidePointerSize]byte {
	var out [WidePointerSize]byte
	binary.LittleEndian.PutUint32(out[0:4], w.Addr)
	binary.LittleEndian.PutUint32(out[4:8], w.Len)
	return out
}

// DecodeWidePointer parses the wire form produced by Encode.
func DecodeWidePointer(b []byte) (WidePointer, error) {
	if len(b) != WidePointerSize {
		return WidePointer{}, fmt.Errorf("abi: wide pointer must be %d bytes, got %d", WidePointerSize, len(b))
	}
	return WidePointer{
		Addr: binary.LittleEndian.Uint32(b[0:4]),
		Len:  binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}

// ReadWidePointer reads the descriptor stored at addr.
func ReadWidePointer(mem Memory, addr uint32) (WidePointer, error) {
	raw, ok := mem.Read(addr, WidePointerSize)
	if !ok {
		return WidePointer{}, outOfBounds(addr, WidePointerSize)
	}
	return DecodeWidePointer(raw)
}

// WriteWidePointer stores w at addr.
func WriteWidePointer(mem Memory, addr uint32, w WidePointer) error {
	enc := w.Encode()
	if !mem.Write(addr, enc[:]) {
		return outOfBounds(addr, WidePointerSize)
	}
	return nil
}
