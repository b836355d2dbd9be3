package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with builtin-specific helpers.
// It gives middleware access to the invoked module and function and a place
// to store request-scoped values.
type HostContext interface {
	context.Context

	// ModuleName returns the builtins module being invoked.
	ModuleName() string

	// FunctionName returns the name of the builtin being invoked.
	FunctionName() string

	// SetValue stores a request-scoped value. Unlike context.WithValue,
	// this mutates the existing HostContext.
	SetValue(key, value any)

	// GetValue retrieves a request-scoped value set by SetValue.
	GetValue(key any) (value any, ok bool)
}

type hostContext struct {
	context.Context
	values     map[any]any
	moduleName string
	funcName   string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, moduleName, funcName string) HostContext {
	return &hostContext{
		Context:    ctx,
		moduleName: moduleName,
		funcName:   funcName,
		values:     make(map[any]any),
	}
}

func (c *hostContext) ModuleName() string {
	return c.moduleName
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) SetValue(key, value any) {
	c.values[key] = value
}

func (c *hostContext) GetValue(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// HostContextFrom returns ctx if it already is a HostContext for the same
// builtin, and wraps it otherwise.
func HostContextFrom(ctx context.Context, moduleName, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok && hc.ModuleName() == moduleName && hc.FunctionName() == funcName {
		return hc
	}
	return NewHostContext(ctx, moduleName, funcName)
}
