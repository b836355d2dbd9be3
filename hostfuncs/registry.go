package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/roastedroot/quickjs4j/internal/validation"
)

func validateName(kind, name string) error {
	if err := validation.Var(name, "required,jsident"); err != nil {
		return fmt.Errorf("invalid %s name %q: must be a JavaScript identifier", kind, name)
	}
	return nil
}

// Module is an immutable, named group of builtins. The guest reaches it as
// globalThis.<name> once the prelude has run.
type Module struct {
	builtins map[string]Builtin
	name     string
	names    []string // sorted for consistent iteration
}

// ModuleOption is a functional option for building a Module.
type ModuleOption func(*moduleBuilder)

type moduleBuilder struct {
	builtins map[string]Builtin
	errors   []error
}

// NewModule creates an immutable Module. Returns an error if the module or
// any function name is not a JavaScript identifier, or a function name is
// registered twice.
//
// Example usage:
//
//	calc, err := NewModule("calc",
//	    WithFunction("add", NewFunc2(func(ctx context.Context, a, b int) (int, error) {
//	        return a + b, nil
//	    })),
//	)
func NewModule(name string, opts ...ModuleOption) (*Module, error) {
	if err := validateName("module", name); err != nil {
		return nil, err
	}

	b := &moduleBuilder{builtins: make(map[string]Builtin)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("module %s: %w", name, errors.Join(b.errors...))
	}

	names := make([]string, 0, len(b.builtins))
	for fn := range b.builtins {
		names = append(names, fn)
	}
	sort.Strings(names)

	return &Module{name: name, builtins: b.builtins, names: names}, nil
}

// WithFunction registers a builtin under name.
func WithFunction(name string, builtin Builtin) ModuleOption {
	return func(b *moduleBuilder) {
		if err := validateName("function", name); err != nil {
			b.errors = append(b.errors, err)
			return
		}
		if builtin.Handler == nil {
			b.errors = append(b.errors, fmt.Errorf("function %q has no handler", name))
			return
		}
		if _, exists := b.builtins[name]; exists {
			b.errors = append(b.errors, fmt.Errorf("duplicate function name: %q", name))
			return
		}
		b.builtins[name] = builtin
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Names returns a sorted list of the module's function names.
func (m *Module) Names() []string {
	result := make([]string, len(m.names))
	copy(result, m.names)
	return result
}

// Builtin returns the builtin registered under name.
func (m *Module) Builtin(name string) (Builtin, bool) {
	b, ok := m.builtins[name]
	return b, ok
}

// Registry is an immutable collection of builtin modules. Middleware is
// applied once at construction, so lookups during dispatch need no locking.
type Registry struct {
	modules  map[string]*Module
	handlers map[string]map[string]ByteHandler
	names    []string
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

type registryBuilder struct {
	modules    map[string]*Module
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable Registry with the given options.
// Returns an error if a module name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithModule(calc),
//	)
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{modules: make(map[string]*Module)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.modules))
	handlers := make(map[string]map[string]ByteHandler, len(b.modules))
	for name, m := range b.modules {
		names = append(names, name)
		wrapped := make(map[string]ByteHandler, len(m.builtins))
		for fn, builtin := range m.builtins {
			h := builtin.Handler
			// Apply middleware in reverse order so the first one wraps outermost.
			for i := len(b.middleware) - 1; i >= 0; i-- {
				h = b.middleware[i](h)
			}
			wrapped[fn] = h
		}
		handlers[name] = wrapped
	}
	sort.Strings(names)

	return &Registry{modules: b.modules, handlers: handlers, names: names}, nil
}

// WithModule adds a module to the registry.
func WithModule(m *Module) RegistryOption {
	return func(b *registryBuilder) {
		if m == nil {
			b.errors = append(b.errors, errors.New("module cannot be nil"))
			return
		}
		if _, exists := b.modules[m.name]; exists {
			b.errors = append(b.errors, fmt.Errorf("duplicate module name: %q", m.name))
			return
		}
		b.modules[m.name] = m
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// Invoke runs module.function with the JSON argument array args and returns
// its JSON result. Failures are reported as *HostError.
func (r *Registry) Invoke(ctx context.Context, module, function string, args []byte) ([]byte, error) {
	fns, ok := r.handlers[module]
	if !ok {
		return nil, NewNotFoundError(module, function)
	}
	handler, ok := fns[function]
	if !ok {
		return nil, NewNotFoundError(module, function)
	}

	resp, err := handler(HostContextFrom(ctx, module, function), args)
	if err != nil {
		var hostErr *HostError
		switch {
		case errors.As(err, &hostErr):
			return nil, hostErr
		case errors.Is(err, ErrBadArguments):
			return nil, NewValidationError(module, function, err)
		default:
			return nil, &HostError{Kind: KindInternal, Module: module, Function: function, Err: err}
		}
	}
	return resp, nil
}

// Module returns the module registered under name.
func (r *Registry) Module(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Modules returns the registered modules sorted by name.
func (r *Registry) Modules() []*Module {
	result := make([]*Module, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.modules[name])
	}
	return result
}
