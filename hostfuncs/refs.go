package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
)

// ErrUnknownRef is wrapped when the guest passes a handle the host never
// issued.
var ErrUnknownRef = errors.New("unknown host reference")

// HostRef is an opaque host value. The guest only ever sees its integer
// handle; builtins taking a HostRef parameter get the original value back.
//
// A HostRef returned from a builtin is entered into the call's RefTable,
// unless it already carries a handle.
type HostRef struct {
	value  any
	handle int
	bound  bool
}

// NewHostRef wraps value for handing to the guest.
func NewHostRef(value any) HostRef {
	return HostRef{value: value}
}

// Value returns the wrapped host value.
func (r HostRef) Value() any {
	return r.value
}

// Handle returns the guest-visible handle, if the reference has one.
func (r HostRef) Handle() (int, bool) {
	return r.handle, r.bound
}

// IsNil reports whether r holds no value, as for a missing argument.
func (r HostRef) IsNil() bool {
	return !r.bound && r.value == nil
}

// JSONSchema describes a HostRef as it travels: an integer handle.
func (HostRef) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Minimum:     "0",
		Description: "opaque host reference handle",
	}
}

// RefTable maps handles to host values. Handles are indices into the table
// and are never reused.
type RefTable struct {
	mu     sync.RWMutex
	values []any
}

// NewRefTable creates an empty RefTable.
func NewRefTable() *RefTable {
	return &RefTable{}
}

// Add stores value and returns its handle.
func (t *RefTable) Add(value any) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = append(t.values, value)
	return len(t.values) - 1
}

// Get returns the value stored under handle.
func (t *RefTable) Get(handle int) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if handle < 0 || handle >= len(t.values) {
		return nil, false
	}
	return t.values[handle], true
}

// Len returns the number of handles issued.
func (t *RefTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

type refsKey struct{}

// WithRefs returns a context whose builtins resolve HostRef arguments and
// results against t.
func WithRefs(ctx context.Context, t *RefTable) context.Context {
	return context.WithValue(ctx, refsKey{}, t)
}

// RefsFrom returns the RefTable attached to ctx.
func RefsFrom(ctx context.Context) (*RefTable, bool) {
	t, ok := ctx.Value(refsKey{}).(*RefTable)
	return t, ok && t != nil
}

func resolveRef(ctx context.Context, handle int) (HostRef, error) {
	refs, ok := RefsFrom(ctx)
	if !ok {
		return HostRef{}, errors.New("no host reference table")
	}
	value, ok := refs.Get(handle)
	if !ok {
		return HostRef{}, fmt.Errorf("handle %d: %w", handle, ErrUnknownRef)
	}
	return HostRef{value: value, handle: handle, bound: true}, nil
}

func bindRef(ctx context.Context, ref HostRef) (int, error) {
	if ref.bound {
		return ref.handle, nil
	}
	refs, ok := RefsFrom(ctx)
	if !ok {
		return 0, errors.New("no host reference table")
	}
	return refs.Add(ref.value), nil
}
