// Package log provides structured logging (slog) for guest code, shipped to
// the host through the chicory.log_message import.
package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roastedroot/quickjs4j/wireformat"
)

// appendAttrWire flattens attr into wire form and appends it to dst. Group
// members are prefixed with the group key and a dot.
func appendAttrWire(dst []wireformat.LogAttrWire, prefix string, attr slog.Attr) []wireformat.LogAttrWire {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}

	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if attr.Value.Kind() == slog.KindGroup {
		for _, member := range attr.Value.Group() {
			dst = appendAttrWire(dst, key, member)
		}
		return dst
	}
	return append(dst, toLogAttrWire(key, attr.Value))
}

// toLogAttrWire converts a resolved, non-group slog.Value to LogAttrWire.
func toLogAttrWire(key string, v slog.Value) wireformat.LogAttrWire {
	wire := wireformat.LogAttrWire{Key: key}

	switch v.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = v.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = fmt.Sprintf("%d", v.Int64())
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = fmt.Sprintf("%d", v.Uint64())
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = fmt.Sprintf("%t", v.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", v.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = v.Duration().String()
	default:
		a := v.Any()
		switch {
		case a == nil:
			wire.Type = "any"
			wire.Value = "<nil>"
		case isError(a):
			wire.Type = "error"
			wire.Value = a.(error).Error()
		default:
			if data, err := json.Marshal(a); err == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", a)
			}
		}
	}
	return wire
}

func isError(v any) bool {
	_, ok := v.(error)
	return ok
}
