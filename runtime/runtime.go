package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/roastedroot/quickjs4j/bridge"
	"github.com/roastedroot/quickjs4j/internal/wasmcontext"
)

// ErrArity is returned when a bound function is called with the wrong
// number of arguments.
var ErrArity = errors.New("wrong number of arguments")

// Function is a native function exposed to scripts. Arguments and result
// are strings; an error surfaces as a script exception.
type Function func(ctx context.Context, args ...string) (string, error)

// Engine is the part of the scripting engine bootstrap needs.
type Engine interface {
	// Configure enables engine features. It is called once, before any
	// global is set.
	Configure(f Features) error
	// SetBool defines a boolean global.
	SetBool(name string, value bool) error
	// SetFunction defines a global function.
	SetFunction(name string, fn Function) error
}

// Initialize configures engine and installs the plugin flag and the invoke
// function bound to inv.
func Initialize(engine Engine, cfg Config, inv *bridge.Invoker) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := engine.Configure(cfg.Features); err != nil {
		return fmt.Errorf("failed to configure engine: %w", err)
	}
	if err := engine.SetBool(cfg.PluginFlag, true); err != nil {
		return fmt.Errorf("failed to set %s: %w", cfg.PluginFlag, err)
	}
	if err := engine.SetFunction(cfg.InvokeFunction, InvokeFunction(inv)); err != nil {
		return fmt.Errorf("failed to bind %s: %w", cfg.InvokeFunction, err)
	}
	return nil
}

// InvokeFunction returns the script function java_invoke(module, name, args)
// backed by inv. The call's context becomes the current context while the
// host runs, so guest logs emitted meanwhile carry it.
func InvokeFunction(inv *bridge.Invoker) Function {
	return func(ctx context.Context, args ...string) (string, error) {
		if len(args) != 3 {
			return "", fmt.Errorf("java_invoke expects module, name and args, got %d: %w", len(args), ErrArity)
		}

		prev := wasmcontext.GetCurrentContext()
		wasmcontext.SetCurrentContext(ctx)
		defer wasmcontext.SetCurrentContext(prev)

		return inv.JavaInvoke(ctx, args[0], args[1], args[2])
	}
}
