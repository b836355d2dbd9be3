package abi

import (
	"sort"
)

// Allocation describes one live or released region.
type Allocation struct {
	Addr  uint32
	Size  uint32
	Align uint32
}

// Tracker is a Backing decorator that records every allocation and release.
//
// It catches the mistakes the boundary protocol cannot survive: frees of
// addresses that are not live (double free) and frees whose size or
// alignment differ from the allocation. Offending releases are recorded and
// never forwarded to the wrapped backing.
type Tracker struct {
	next       Backing
	live       map[uint32]Allocation
	allocs     []Allocation
	frees      []Allocation
	violations []error
}

// NewTracker wraps next.
func NewTracker(next Backing) *Tracker {
	return &Tracker{
		next: next,
		live: make(map[uint32]Allocation),
	}
}

// Alloc implements Backing.
func (t *Tracker) Alloc(size, align uint32) (uint32, error) {
	addr, err := t.next.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	a := Allocation{Addr: addr, Size: size, Align: align}
	t.live[addr] = a
	t.allocs = append(t.allocs, a)
	return addr, nil
}

// Release implements Backing.
func (t *Tracker) Release(addr, size, align uint32) {
	got := Allocation{Addr: addr, Size: size, Align: align}
	want, ok := t.live[addr]
	if !ok {
		t.violations = append(t.violations, violation("free of %#x (size %d, align %d) which is not allocated", addr, size, align))
		return
	}
	if want != got {
		t.violations = append(t.violations, violation("free of %#x with (size %d, align %d), allocated with (size %d, align %d)",
			addr, size, align, want.Size, want.Align))
		return
	}
	delete(t.live, addr)
	t.frees = append(t.frees, got)
	t.next.Release(addr, size, align)
}

// Outstanding returns the allocations not yet released, ordered by address.
func (t *Tracker) Outstanding() []Allocation {
	out := make([]Allocation, 0, len(t.live))
	for _, a := range t.live {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Allocs returns every allocation in the order it was made.
func (t *Tracker) Allocs() []Allocation {
	return append([]Allocation(nil), t.allocs...)
}

// Frees returns every accepted release in the order it happened.
func (t *Tracker) Frees() []Allocation {
	return append([]Allocation(nil), t.frees...)
}

// Violations returns the rejected releases.
func (t *Tracker) Violations() []error {
	return append([]error(nil), t.violations...)
}

// Stats returns the number of live allocations and their total size.
func (t *Tracker) Stats() (count int, totalBytes int) {
	for _, a := range t.live {
		totalBytes += int(a.Size)
	}
	return len(t.live), totalBytes
}

// Reset forgets all history. Live regions are not released.
func (t *Tracker) Reset() {
	t.live = make(map[uint32]Allocation)
	t.allocs = nil
	t.frees = nil
	t.violations = nil
}
