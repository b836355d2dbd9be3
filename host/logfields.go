package host

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roastedroot/quickjs4j/wireformat"
)

// parseLevel maps slog and config level names to zap levels. slog's
// offset forms such as "INFO+2" map to their base level.
func parseLevel(s string) zapcore.Level {
	switch upper := strings.ToUpper(s); {
	case strings.HasPrefix(upper, "DEBUG"):
		return zapcore.DebugLevel
	case strings.HasPrefix(upper, "WARN"):
		return zapcore.WarnLevel
	case strings.HasPrefix(upper, "ERROR"):
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// logFields converts a guest record's metadata and attributes to zap fields.
func logFields(msg wireformat.LogMessageWire) []zap.Field {
	fields := make([]zap.Field, 0, len(msg.Attrs)+3)
	if !msg.Timestamp.IsZero() {
		fields = append(fields, zap.Time("guest_time", msg.Timestamp))
	}
	if msg.Source != "" {
		fields = append(fields, zap.String("source", msg.Source))
	}
	if msg.Context.RequestID != "" {
		fields = append(fields, zap.String("request_id", msg.Context.RequestID))
	}
	for _, a := range msg.Attrs {
		fields = append(fields, attrField(a))
	}
	return fields
}

// attrField decodes a typed attribute. Values that fail to parse are kept
// as strings.
func attrField(a wireformat.LogAttrWire) zap.Field {
	switch a.Type {
	case "int64":
		if v, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
			return zap.Int64(a.Key, v)
		}
	case "uint64":
		if v, err := strconv.ParseUint(a.Value, 10, 64); err == nil {
			return zap.Uint64(a.Key, v)
		}
	case "bool":
		if v, err := strconv.ParseBool(a.Value); err == nil {
			return zap.Bool(a.Key, v)
		}
	case "float64":
		if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
			return zap.Float64(a.Key, v)
		}
	case "time":
		if v, err := time.Parse(time.RFC3339Nano, a.Value); err == nil {
			return zap.Time(a.Key, v)
		}
	case "duration":
		if v, err := time.ParseDuration(a.Value); err == nil {
			return zap.Duration(a.Key, v)
		}
	}
	return zap.String(a.Key, a.Value)
}
