//go:build wasip1

package log

import (
	"github.com/roastedroot/quickjs4j/bridge"
)

func defaultInvoker() *bridge.Invoker {
	return bridge.DefaultLog()
}
