package hostfuncs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrBadArguments is wrapped when the JSON argument array cannot be decoded
// into a builtin's parameter types.
var ErrBadArguments = errors.New("bad arguments")

// ByteHandler accepts the JSON argument array sent by the guest and returns
// the JSON-encoded result.
type ByteHandler func(ctx context.Context, args []byte) ([]byte, error)

// Builtin is a host function callable from the guest, together with the Go
// types of its positional parameters and result. Result is nil for builtins
// that return nothing; they answer with JSON null.
type Builtin struct {
	Handler ByteHandler
	Params  []reflect.Type
	Result  reflect.Type
}

// NewFunc0 wraps a builtin with no parameters.
func NewFunc0[R any](fn func(context.Context) (R, error)) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			if _, err := decodeArgs(payload); err != nil {
				return nil, err
			}
			res, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			return encodeResult(ctx, res)
		},
		Result: reflect.TypeOf((*R)(nil)).Elem(),
	}
}

// NewFunc1 wraps a builtin with one parameter.
func NewFunc1[A, R any](fn func(context.Context, A) (R, error)) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			args, err := decodeArgs(payload)
			if err != nil {
				return nil, err
			}
			a, err := argAt[A](ctx, args, 0)
			if err != nil {
				return nil, err
			}
			res, err := fn(ctx, a)
			if err != nil {
				return nil, err
			}
			return encodeResult(ctx, res)
		},
		Params: []reflect.Type{reflect.TypeOf((*A)(nil)).Elem()},
		Result: reflect.TypeOf((*R)(nil)).Elem(),
	}
}

// NewFunc2 wraps a builtin with two parameters.
func NewFunc2[A, B, R any](fn func(context.Context, A, B) (R, error)) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			args, err := decodeArgs(payload)
			if err != nil {
				return nil, err
			}
			a, err := argAt[A](ctx, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := argAt[B](ctx, args, 1)
			if err != nil {
				return nil, err
			}
			res, err := fn(ctx, a, b)
			if err != nil {
				return nil, err
			}
			return encodeResult(ctx, res)
		},
		Params: []reflect.Type{reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem()},
		Result: reflect.TypeOf((*R)(nil)).Elem(),
	}
}

// NewFunc3 wraps a builtin with three parameters.
func NewFunc3[A, B, C, R any](fn func(context.Context, A, B, C) (R, error)) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			args, err := decodeArgs(payload)
			if err != nil {
				return nil, err
			}
			a, err := argAt[A](ctx, args, 0)
			if err != nil {
				return nil, err
			}
			b, err := argAt[B](ctx, args, 1)
			if err != nil {
				return nil, err
			}
			c, err := argAt[C](ctx, args, 2)
			if err != nil {
				return nil, err
			}
			res, err := fn(ctx, a, b, c)
			if err != nil {
				return nil, err
			}
			return encodeResult(ctx, res)
		},
		Params: []reflect.Type{reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem(), reflect.TypeOf((*C)(nil)).Elem()},
		Result: reflect.TypeOf((*R)(nil)).Elem(),
	}
}

// NewProc0 wraps a builtin with no parameters and no result.
func NewProc0(fn func(context.Context) error) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			if _, err := decodeArgs(payload); err != nil {
				return nil, err
			}
			if err := fn(ctx); err != nil {
				return nil, err
			}
			return []byte("null"), nil
		},
	}
}

// NewProc1 wraps a builtin with one parameter and no result.
func NewProc1[A any](fn func(context.Context, A) error) Builtin {
	return Builtin{
		Handler: func(ctx context.Context, payload []byte) ([]byte, error) {
			args, err := decodeArgs(payload)
			if err != nil {
				return nil, err
			}
			a, err := argAt[A](ctx, args, 0)
			if err != nil {
				return nil, err
			}
			if err := fn(ctx, a); err != nil {
				return nil, err
			}
			return []byte("null"), nil
		},
		Params: []reflect.Type{reflect.TypeOf((*A)(nil)).Elem()},
	}
}

// decodeArgs splits the JSON argument array. An empty payload means no
// arguments.
func decodeArgs(payload []byte) ([]json.RawMessage, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(payload, &args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON array: %w: %w", ErrBadArguments, err)
	}
	return args, nil
}

// argAt decodes the i-th argument. Missing trailing arguments decode as the
// zero value, the same as an explicit null. A HostRef parameter is sent as
// an integer handle and resolved against the RefTable in ctx.
func argAt[T any](ctx context.Context, args []json.RawMessage, i int) (T, error) {
	var v T
	if i >= len(args) {
		return v, nil
	}
	if ref, ok := any(&v).(*HostRef); ok {
		if bytes.Equal(bytes.TrimSpace(args[i]), []byte("null")) {
			return v, nil
		}
		var handle int
		if err := json.Unmarshal(args[i], &handle); err != nil {
			return v, fmt.Errorf("argument %d: %w: %w", i, ErrBadArguments, err)
		}
		resolved, err := resolveRef(ctx, handle)
		if err != nil {
			return v, fmt.Errorf("argument %d: %w: %w", i, ErrBadArguments, err)
		}
		*ref = resolved
		return v, nil
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, fmt.Errorf("argument %d: %w: %w", i, ErrBadArguments, err)
	}
	return v, nil
}

// encodeResult marshals a builtin's result. A HostRef result is replaced by
// its handle.
func encodeResult(ctx context.Context, v any) ([]byte, error) {
	if ref, ok := v.(HostRef); ok {
		if ref.IsNil() {
			return []byte("null"), nil
		}
		handle, err := bindRef(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to bind host reference: %w", err)
		}
		v = handle
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return data, nil
}
