package host

import (
	"go.uber.org/zap"

	"github.com/roastedroot/quickjs4j/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithRegistry sets the builtins served to guests.
func WithRegistry(registry *hostfuncs.Registry) Option {
	return func(e *Executor) {
		e.registry = registry
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.config = cfg
	}
}

// WithLogger sets the logger for dispatch diagnostics and guest log
// records. It defaults to Logger().
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}
