//go:build wasip1

package bridge

import (
	"context"
	"fmt"
)

// Host builtin dispatch: three (ptr, len) strings in, wide pointer out.
//
//go:wasmimport chicory invoke
//nolint:revive // intentional snake_case to match WASM import convention
func host_invoke(modulePtr, moduleLen, namePtr, nameLen, argsPtr, argsLen uint32) uint32

// Host log sink: one (ptr, len) JSON record in, nothing out.
//
//go:wasmimport chicory log_message
//nolint:revive // intentional snake_case to match WASM import convention
func host_log_message(ptr, length uint32)

func invokeImport(_ context.Context, params ...uint32) uint32 {
	if len(params) != 6 {
		panic(fmt.Sprintf("bridge: chicory.invoke takes 6 parameters, got %d", len(params)))
	}
	return host_invoke(params[0], params[1], params[2], params[3], params[4], params[5])
}

func logImport(_ context.Context, params ...uint32) uint32 {
	if len(params) != 2 {
		panic(fmt.Sprintf("bridge: chicory.log_message takes 2 parameters, got %d", len(params)))
	}
	host_log_message(params[0], params[1])
	return 0
}

// Default returns the Invoker bound to chicory.invoke.
func Default() *Invoker {
	return NewInvoker(nil, invokeImport)
}

// DefaultLog returns the Invoker bound to chicory.log_message.
func DefaultLog() *Invoker {
	return NewInvoker(nil, logImport)
}
