package abi

import (
	"encoding/binary"
	"fmt"
)

const (
	// PageSize is the WebAssembly page size.
	PageSize = 65536

	// DefaultMaxPages caps an Arena at 16 MiB unless configured otherwise.
	DefaultMaxPages = 256

	maxLinearPages = 65536

	// arenaBase keeps the low addresses unused so that neither 0 (null) nor
	// ZeroSizeSentinel can ever be handed out as a real allocation.
	arenaBase = 16
)

type blockKey struct {
	size  uint32
	align uint32
}

// Arena is a bump allocator over a flat byte slice standing in for linear
// memory. It implements both Backing and Memory.
//
// Released blocks are kept on a list keyed by their exact (size, align) and
// handed out again for an identical request; nothing is coalesced. That is
// enough for a call-and-return bridge where every buffer dies before the
// invocation returns.
//
// Every live block is remembered with its (size, align). Releasing a block
// that is not live, or with other values than it was allocated with, panics
// with ErrContractViolation.
type Arena struct {
	mem      []byte
	free     map[blockKey][]uint32
	live     map[uint32]blockKey
	next     uint64
	maxPages uint32
}

// ArenaOption configures an Arena.
type ArenaOption func(*arenaConfig)

type arenaConfig struct {
	initialPages uint32
	maxPages     uint32
}

func defaultArenaConfig() arenaConfig {
	return arenaConfig{
		initialPages: 1,
		maxPages:     DefaultMaxPages,
	}
}

// WithInitialPages sets the number of pages the arena starts with.
func WithInitialPages(n uint32) ArenaOption {
	return func(c *arenaConfig) {
		if n > 0 {
			c.initialPages = n
		}
	}
}

// WithMaxPages sets the number of pages the arena may grow to.
// Requests beyond it fail with ErrOutOfMemory.
func WithMaxPages(n uint32) ArenaOption {
	return func(c *arenaConfig) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewArena creates an Arena with the given options.
func NewArena(opts ...ArenaOption) *Arena {
	cfg := defaultArenaConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	// Linear memory addresses are 32 bits wide.
	cfg.maxPages = min(cfg.maxPages, maxLinearPages)
	if cfg.initialPages > cfg.maxPages {
		cfg.initialPages = cfg.maxPages
	}
	return &Arena{
		mem:      make([]byte, uint64(cfg.initialPages)*PageSize),
		free:     make(map[blockKey][]uint32),
		live:     make(map[uint32]blockKey),
		next:     arenaBase,
		maxPages: cfg.maxPages,
	}
}

// Alloc implements Backing.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	key := blockKey{size: size, align: align}
	if list := a.free[key]; len(list) > 0 {
		addr := list[len(list)-1]
		a.free[key] = list[:len(list)-1]
		clear(a.mem[addr : addr+size])
		a.live[addr] = key
		return addr, nil
	}

	start := alignUp(a.next, uint64(align))
	end := start + uint64(size)
	if end > uint64(a.maxPages)*PageSize {
		return 0, fmt.Errorf("arena: %d bytes at align %d exceeds %d pages: %w", size, align, a.maxPages, ErrOutOfMemory)
	}
	if end > uint64(len(a.mem)) {
		a.grow(end)
	}
	a.next = end
	a.live[uint32(start)] = key
	return uint32(start), nil
}

// Release implements Backing.
func (a *Arena) Release(addr, size, align uint32) {
	key := blockKey{size: size, align: align}
	want, ok := a.live[addr]
	if !ok {
		panic(violation("free of %#x (size %d, align %d) which is not allocated", addr, size, align))
	}
	if want != key {
		panic(violation("free of %#x with (size %d, align %d), allocated with (size %d, align %d)",
			addr, size, align, want.size, want.align))
	}
	delete(a.live, addr)
	a.free[key] = append(a.free[key], addr)
}

// grow extends the memory to at least end bytes, a whole page at a time.
func (a *Arena) grow(end uint64) {
	pages := (end + PageSize - 1) / PageSize
	grown := make([]byte, pages*PageSize)
	copy(grown, a.mem)
	a.mem = grown
}

// Pages reports the current size of the arena in pages.
func (a *Arena) Pages() uint32 {
	return uint32(len(a.mem) / PageSize)
}

// Read implements Memory. The returned slice aliases the arena.
func (a *Arena) Read(offset, length uint32) ([]byte, bool) {
	if !a.inBounds(offset, length) {
		return nil, false
	}
	return a.mem[offset : offset+length : offset+length], true
}

// Write implements Memory.
func (a *Arena) Write(offset uint32, data []byte) bool {
	if uint64(len(data)) > uint64(^uint32(0)) || !a.inBounds(offset, uint32(len(data))) {
		return false
	}
	copy(a.mem[offset:], data)
	return true
}

// ReadUint32Le implements Memory.
func (a *Arena) ReadUint32Le(offset uint32) (uint32, bool) {
	if !a.inBounds(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(a.mem[offset:]), true
}

// WriteUint32Le implements Memory.
func (a *Arena) WriteUint32Le(offset, value uint32) bool {
	if !a.inBounds(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(a.mem[offset:], value)
	return true
}

func (a *Arena) inBounds(offset, length uint32) bool {
	return uint64(offset)+uint64(length) <= uint64(len(a.mem))
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
