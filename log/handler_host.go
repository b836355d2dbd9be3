//go:build !wasip1

package log

import (
	"context"
	"fmt"

	"github.com/roastedroot/quickjs4j/bridge"
	"github.com/roastedroot/quickjs4j/internal/abi"
)

// defaultInvoker prints records to stdout outside the wasm module, so code
// that logs can still run in native tests.
func defaultInvoker() *bridge.Invoker {
	return bridge.NewInvoker(nil, func(_ context.Context, params ...uint32) uint32 {
		if len(params) < 2 {
			return 0
		}
		data, ok := abi.Default().Memory().Read(params[0], params[1])
		if params[1] == 0 {
			data, ok = nil, true
		}
		if ok {
			fmt.Printf("[HOST-STUB] %s\n", data)
		}
		return 0
	})
}
