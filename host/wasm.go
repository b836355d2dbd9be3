package host

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/roastedroot/quickjs4j/hostfuncs"
	"github.com/roastedroot/quickjs4j/wireformat"
)

func (e *Executor) registerHostFunctions(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(e.config.HostModule)

	builder.NewFunctionBuilder().
		WithFunc(e.invoke).
		WithParameterNames("module_ptr", "module_len", "name_ptr", "name_len", "args_ptr", "args_len").
		WithResultNames("wide_ptr").
		Export("invoke")

	builder.NewFunctionBuilder().
		WithFunc(e.logMessage).
		WithParameterNames("ptr", "len").
		Export("log_message")

	_, err := builder.Instantiate(ctx)
	return err
}

// invoke serves a builtin call. Failures panic, which wazero turns into a
// trap of the guest call in progress.
func (e *Executor) invoke(ctx context.Context, m api.Module,
	modulePtr, moduleLen, namePtr, nameLen, argsPtr, argsLen uint32,
) uint32 {
	alloc, err := wrapAllocator(m)
	if err != nil {
		panic(err)
	}

	params := [6]uint32{modulePtr, moduleLen, namePtr, nameLen, argsPtr, argsLen}
	desc, err := e.dispatcher.Dispatch(ctx, m.Memory(), alloc, params)
	if err != nil {
		panic(err)
	}
	return desc
}

// logMessage forwards one guest log record. The guest keeps ownership of
// the record's memory.
func (e *Executor) logMessage(_ context.Context, m api.Module, ptr, length uint32) {
	log := e.logger.Named("guest")

	raw, err := hostfuncs.ReadString(m.Memory(), ptr, length, uint32(e.config.MaxRequestSize))
	if err != nil {
		log.Warn("failed to read guest log message", zap.Error(err))
		return
	}

	var msg wireformat.LogMessageWire
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		log.Info("plugin log (raw)", zap.String("payload", raw))
		return
	}

	level := parseLevel(msg.Level)
	if level < parseLevel(e.config.LogLevel) {
		return
	}
	if ce := log.Check(level, msg.Message); ce != nil {
		ce.Write(logFields(msg)...)
	}
}
