package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/roastedroot/quickjs4j/hostfuncs"
)

// Guest is an instantiated guest module.
type Guest struct {
	module api.Module
	alloc  *allocatorWrapper
	stdout *outputBuffer
	stderr *outputBuffer
}

// GuestError reports a failed call into the guest together with everything
// the guest had written to stdout and stderr.
type GuestError struct {
	Export string
	Err    error
	Stdout string
	Stderr string
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("guest %s failed: %v\nstderr: %s\nstdout: %s", e.Export, e.Err, e.Stderr, e.Stdout)
}

func (e *GuestError) Unwrap() error {
	return e.Err
}

// outputBuffer collects a guest's WASI output stream.
type outputBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newGuest(m api.Module, stdout, stderr *outputBuffer) (*Guest, error) {
	if m.Memory() == nil {
		return nil, errors.New("guest does not export memory")
	}
	alloc, err := wrapAllocator(m)
	if err != nil {
		return nil, err
	}
	return &Guest{module: m, alloc: alloc, stdout: stdout, stderr: stderr}, nil
}

// Stdout returns what the guest has written to stdout so far.
func (g *Guest) Stdout() string {
	return g.stdout.String()
}

// Stderr returns what the guest has written to stderr so far.
func (g *Guest) Stderr() string {
	return g.stderr.String()
}

// Memory returns the guest's linear memory.
func (g *Guest) Memory() api.Memory {
	return g.module.Memory()
}

// Allocator returns the guest's exported allocator.
func (g *Guest) Allocator() hostfuncs.GuestAllocator {
	return g.alloc
}

// WriteString copies s into a fresh guest allocation and returns its
// address and length, ready to pass to an export. The caller frees it with
// canonical_abi_free(addr, len, 1), or hands ownership to the guest.
func (g *Guest) WriteString(ctx context.Context, s string) (addr, length uint32, err error) {
	length = uint32(len(s))
	addr, err = g.alloc.Realloc(ctx, 0, 0, 1, length)
	if err != nil {
		return 0, 0, err
	}
	if length > 0 && !g.Memory().WriteString(addr, s) {
		return 0, 0, errors.Join(
			fmt.Errorf("write %d bytes at %#x: out of bounds", length, addr),
			g.alloc.Free(ctx, addr, length, 1))
	}
	return addr, length, nil
}

// WriteBytes copies data into the guest and returns the address of a wide
// pointer describing it. Compiled code is staged this way.
func (g *Guest) WriteBytes(ctx context.Context, data []byte) (uint32, error) {
	return hostfuncs.WriteResult(ctx, g.Memory(), g.alloc, data)
}

// ReadBytes copies out the data described by the wide pointer at desc.
func (g *Guest) ReadBytes(desc uint32) ([]byte, error) {
	data, _, err := hostfuncs.ReadWide(g.Memory(), desc)
	return data, err
}

// FreeBytes releases the data described by the wide pointer at desc and
// then the descriptor.
func (g *Guest) FreeBytes(ctx context.Context, desc uint32) error {
	return hostfuncs.FreeWide(ctx, g.Memory(), g.alloc, desc)
}

// Call invokes an exported function by name. A trap is returned as a
// *GuestError carrying the guest's output.
func (g *Guest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	f := g.module.ExportedFunction(name)
	if f == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	results, err := f.Call(ctx, params...)
	if err != nil {
		return nil, &GuestError{Export: name, Err: err, Stdout: g.Stdout(), Stderr: g.Stderr()}
	}
	return results, nil
}

// Close releases the guest module.
func (g *Guest) Close(ctx context.Context) error {
	return g.module.Close(ctx)
}
