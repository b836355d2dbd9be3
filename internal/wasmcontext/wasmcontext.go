// Package wasmcontext tracks the context of the guest call in progress and
// converts it to the wire format attached to host calls.
package wasmcontext

import (
	stdcontext "context"
	"sync"
	"time"

	"github.com/roastedroot/quickjs4j/wireformat"
)

type contextKey string

// RequestIDKey is the context key for request ID.
const RequestIDKey contextKey = "request_id"

// contextStore holds the context of the current guest call. The guest is
// single-threaded; the lock only keeps native tests race-free.
var contextStore = struct {
	ctx stdcontext.Context
	sync.RWMutex
}{
	ctx: stdcontext.Background(),
}

// SetCurrentContext sets the current execution context.
func SetCurrentContext(ctx stdcontext.Context) {
	contextStore.Lock()
	defer contextStore.Unlock()
	contextStore.ctx = ctx
}

// GetCurrentContext returns the current execution context, or
// context.Background() if none has been set.
func GetCurrentContext() stdcontext.Context {
	contextStore.RLock()
	defer contextStore.RUnlock()
	if contextStore.ctx == nil {
		return stdcontext.Background()
	}
	return contextStore.ctx
}

// ResetContext resets the current context to background.
func ResetContext() {
	SetCurrentContext(stdcontext.Background())
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx stdcontext.Context, id string) stdcontext.Context {
	return stdcontext.WithValue(ctx, RequestIDKey, id)
}

// ContextToWire extracts deadline, cancellation and request ID from ctx.
func ContextToWire(ctx stdcontext.Context) wireformat.ContextWireFormat {
	wire := wireformat.ContextWireFormat{}

	if deadline, ok := ctx.Deadline(); ok {
		wire.Deadline = &deadline
		if timeout := time.Until(deadline); timeout > 0 {
			wire.TimeoutMs = timeout.Milliseconds()
		}
	}

	select {
	case <-ctx.Done():
		wire.Canceled = true
	default:
	}

	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		wire.RequestID = id
	}

	return wire
}
