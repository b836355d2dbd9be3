package hostfuncs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next ByteHandler) ByteHandler {
//	    return func(ctx context.Context, args []byte) ([]byte, error) {
//	        start := time.Now()
//	        defer func() { observe(time.Since(start)) }()
//	        return next(ctx, args)
//	    }
//	}
type Middleware func(next ByteHandler) ByteHandler

// PanicRecoveryMiddleware returns a middleware that converts panics in a
// builtin into a *HostError of kind PANIC instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, args []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					module, function := names(ctx)
					resp = nil
					err = NewPanicError(module, function, r)
				}
			}()
			return next(ctx, args)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every builtin invocation.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, args []byte) ([]byte, error) {
			module, function := names(ctx)
			log := logger.With(zap.String("module", module), zap.String("function", function))

			start := time.Now()
			resp, err := next(ctx, args)
			if err != nil {
				log.Warn("builtin failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			} else {
				log.Debug("builtin completed",
					zap.Duration("elapsed", time.Since(start)),
					zap.Int("args_bytes", len(args)),
					zap.Int("result_bytes", len(resp)))
			}
			return resp, err
		}
	}
}

func names(ctx context.Context) (module, function string) {
	if hc, ok := ctx.(HostContext); ok {
		return hc.ModuleName(), hc.FunctionName()
	}
	return "unknown", "unknown"
}
