package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/roastedroot/quickjs4j/bridge"
	"github.com/roastedroot/quickjs4j/internal/wasmcontext"
	"github.com/roastedroot/quickjs4j/wireformat"
)

// WasmLogHandler implements slog.Handler by sending every record to the host
// as a LogMessageWire JSON document.
type WasmLogHandler struct {
	opts   handlerConfig
	attrs  []wireformat.LogAttrWire
	prefix string
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	invoker   *bridge.Invoker
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level will be filtered on the guest side.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithInvoker sets the invoker bound to the log import. It defaults to
// bridge.DefaultLog() inside the wasm module.
func WithInvoker(inv *bridge.Invoker) HandlerOption {
	return func(c *handlerConfig) {
		c.invoker = inv
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.invoker == nil {
		cfg.invoker = defaultInvoker()
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// WithAttrs returns a new WasmLogHandler that includes the given attributes.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = appendAttrWire(clone.attrs, clone.prefix, a)
	}
	return clone
}

// WithGroup returns a new WasmLogHandler that qualifies later attributes
// with name.
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	if clone.prefix == "" {
		clone.prefix = name
	} else {
		clone.prefix = clone.prefix + "." + name
	}
	return clone
}

func (h *WasmLogHandler) clone() *WasmLogHandler {
	c := *h
	c.attrs = append([]wireformat.LogAttrWire(nil), h.attrs...)
	return &c
}

// Handle serializes a slog.Record and sends it to the host.
func (h *WasmLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx == nil || ctx == context.Background() {
		ctx = wasmcontext.GetCurrentContext()
	}

	msg := h.toWire(ctx, record)
	data, err := json.Marshal(msg)
	if err != nil {
		// Nothing useful can be returned to slog; report on stdout instead.
		fmt.Printf("quickjs4j: failed to marshal log message for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	h.opts.invoker.Notify(ctx, string(data))
	return nil
}

func (h *WasmLogHandler) toWire(ctx context.Context, record slog.Record) wireformat.LogMessageWire {
	msg := wireformat.LogMessageWire{
		Context:   wasmcontext.ContextToWire(ctx),
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
	}
	if len(h.attrs) > 0 {
		msg.Attrs = append(msg.Attrs, h.attrs...)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = appendAttrWire(msg.Attrs, h.prefix, attr)
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		msg.Source = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return msg
}

// init configures the default slog handler to use our WasmLogHandler.
func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
