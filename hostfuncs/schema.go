package hostfuncs

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FunctionSchema describes the positional parameters and the result of one
// builtin. Result is omitted for builtins that return nothing.
type FunctionSchema struct {
	Params []*jsonschema.Schema `json:"params"`
	Result *jsonschema.Schema   `json:"result,omitempty"`
}

// Schema returns the JSON schema of every builtin in r, keyed by module and
// function name.
func (r *Registry) Schema() ([]byte, error) {
	doc := make(map[string]map[string]FunctionSchema, len(r.names))
	for _, m := range r.Modules() {
		fns := make(map[string]FunctionSchema, len(m.names))
		for _, name := range m.names {
			b := m.builtins[name]
			fs := FunctionSchema{Params: make([]*jsonschema.Schema, 0, len(b.Params))}
			for _, p := range b.Params {
				fs.Params = append(fs.Params, reflectType(p))
			}
			if b.Result != nil {
				fs.Result = reflectType(b.Result)
			}
			fns[name] = fs
		}
		doc[m.Name()] = fns
	}

	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}

func reflectType(t reflect.Type) *jsonschema.Schema {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == reflect.TypeOf((*HostRef)(nil)).Elem() {
		return HostRef{}.JSONSchema()
	}
	reflector := jsonschema.Reflector{
		Anonymous: true,
		// Expand struct definitions inline; only valid for struct roots.
		ExpandedStruct: t.Kind() == reflect.Struct,
	}
	return reflector.ReflectFromType(t)
}
