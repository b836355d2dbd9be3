package hostfuncs

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultMaxRequestSize bounds each string the guest passes to invoke.
const DefaultMaxRequestSize = 1 << 20 // 1MB

// Dispatcher serves the guest's invoke import: it reads the module name,
// function name and JSON argument array out of guest memory, runs the
// builtin and hands the JSON result back through the guest allocator.
type Dispatcher struct {
	registry       *Registry
	refs           *RefTable
	logger         *zap.Logger
	maxRequestSize uint32
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxRequestSize limits the size of each string read from the guest.
// Zero disables the limit.
func WithMaxRequestSize(n uint32) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxRequestSize = n
	}
}

// WithRefTable sets the table HostRef handles are issued from. By default
// every Dispatcher has its own.
func WithRefTable(refs *RefTable) DispatcherOption {
	return func(d *Dispatcher) {
		if refs != nil {
			d.refs = refs
		}
	}
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:       registry,
		refs:           NewRefTable(),
		logger:         zap.NewNop(),
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Refs returns the table of host references handed to the guest.
func (d *Dispatcher) Refs() *RefTable {
	return d.refs
}

// Request is the decoded form of one invoke call.
type Request struct {
	Module   string
	Function string
	Args     string
}

// ReadRequest decodes the three (address, length) pairs of an invoke call.
func (d *Dispatcher) ReadRequest(mem GuestMemory, params [6]uint32) (Request, error) {
	module, err := ReadString(mem, params[0], params[1], d.maxRequestSize)
	if err != nil {
		return Request{}, fmt.Errorf("module name: %w", err)
	}
	function, err := ReadString(mem, params[2], params[3], d.maxRequestSize)
	if err != nil {
		return Request{}, fmt.Errorf("function name: %w", err)
	}
	args, err := ReadString(mem, params[4], params[5], d.maxRequestSize)
	if err != nil {
		return Request{}, fmt.Errorf("arguments: %w", err)
	}
	return Request{Module: module, Function: function, Args: args}, nil
}

// Dispatch handles one invoke call and returns the address of the wide
// pointer describing the result. The guest owns the returned memory.
//
// Any error means the guest call must trap: the guest has no error channel
// for invoke.
func (d *Dispatcher) Dispatch(ctx context.Context, mem GuestMemory, alloc GuestAllocator, params [6]uint32) (uint32, error) {
	req, err := d.ReadRequest(mem, params)
	if err != nil {
		d.logger.Error("failed to read invoke request", zap.Error(err))
		return 0, err
	}

	log := d.logger.With(zap.String("module", req.Module), zap.String("function", req.Function))
	log.Debug("dispatching builtin", zap.Int("args_bytes", len(req.Args)))

	result, err := d.registry.Invoke(WithRefs(ctx, d.refs), req.Module, req.Function, []byte(req.Args))
	if err != nil {
		log.Warn("builtin invocation failed", zap.Error(err))
		return 0, err
	}

	desc, err := WriteResult(ctx, mem, alloc, result)
	if err != nil {
		log.Error("failed to write builtin result", zap.Error(err))
		return 0, fmt.Errorf("%s.%s: %w", req.Module, req.Function, err)
	}
	return desc, nil
}
