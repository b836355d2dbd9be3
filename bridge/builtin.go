package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// CallBuiltin calls the host builtin module.name with args encoded as a JSON
// array and returns the raw JSON result ("null" for builtins without one).
func (i *Invoker) CallBuiltin(ctx context.Context, module, name string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	reqData, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments for %s.%s: %w", module, name, err)
	}

	res, err := i.JavaInvoke(ctx, module, name, string(reqData))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res), nil
}

// CallBuiltinAs calls a host builtin and decodes its JSON result into T.
func CallBuiltinAs[T any](ctx context.Context, inv *Invoker, module, name string, args ...any) (T, error) {
	var out T
	raw, err := inv.CallBuiltin(ctx, module, name, args...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal result of %s.%s: %w", module, name, err)
	}
	return out, nil
}
