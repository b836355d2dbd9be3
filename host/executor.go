package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/roastedroot/quickjs4j/hostfuncs"
)

// Executor owns a wazero runtime with the host module instantiated.
type Executor struct {
	runtime    wazero.Runtime
	registry   *hostfuncs.Registry
	dispatcher *hostfuncs.Dispatcher
	logger     *zap.Logger
	config     Config
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	if e.logger == nil {
		e.logger = Logger()
	}
	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}
	e.dispatcher = hostfuncs.NewDispatcher(e.registry,
		hostfuncs.WithLogger(e.logger),
		hostfuncs.WithMaxRequestSize(uint32(e.config.MaxRequestSize)))

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(e.config.CloseOnContextDone)
	if e.config.MemoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(e.config.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := e.registerHostFunctions(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor, including every guest
// loaded through it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Registry returns the builtins served to guests.
func (e *Executor) Registry() *hostfuncs.Registry {
	return e.registry
}

// Prelude returns the script that binds every registered builtin to a
// global in the guest's scripting runtime.
func (e *Executor) Prelude() string {
	return hostfuncs.Prelude(e.registry)
}

// Load instantiates a guest module and runs its _initialize export, if any.
// The guest's WASI stdout and stderr are captured per guest.
func (e *Executor) Load(ctx context.Context, wasmBytes []byte) (*Guest, error) {
	stdout, stderr := &outputBuffer{}, &outputBuffer{}
	modConfig := wazero.NewModuleConfig().
		WithStdout(stdout).
		WithStderr(stderr)

	mod, err := e.runtime.InstantiateWithConfig(ctx, wasmBytes, modConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, &GuestError{Export: "_initialize", Err: err, Stdout: stdout.String(), Stderr: stderr.String()}
		}
	}

	g, err := newGuest(mod, stdout, stderr)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return g, nil
}
