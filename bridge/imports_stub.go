//go:build !wasip1

package bridge

import (
	"context"
)

// Default returns an Invoker whose import panics: chicory.invoke only exists
// inside the wasm module. Use NewInvoker with a custom Import in native code.
func Default() *Invoker {
	return NewInvoker(nil, func(context.Context, ...uint32) uint32 {
		panic("chicory.invoke not available in native build. Use NewInvoker() to inject an import.")
	})
}

// DefaultLog returns an Invoker whose import panics, like Default.
func DefaultLog() *Invoker {
	return NewInvoker(nil, func(context.Context, ...uint32) uint32 {
		panic("chicory.log_message not available in native build. Use NewInvoker() to inject an import.")
	})
}
