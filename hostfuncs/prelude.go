package hostfuncs

import (
	"strings"
)

// InvokeFunction is the global the guest runtime installs for calling builtins.
const InvokeFunction = "java_invoke"

// Prelude returns the script that exposes every builtin of r to guest code as
// globalThis.<module>.<function>. Each stub JSON-encodes its arguments,
// calls java_invoke and parses the JSON result.
func Prelude(r *Registry) string {
	var sb strings.Builder
	for _, m := range r.Modules() {
		sb.WriteString("globalThis.")
		sb.WriteString(m.Name())
		sb.WriteString(" = {};\n")

		for _, fn := range m.Names() {
			sb.WriteString("globalThis.")
			sb.WriteString(m.Name())
			sb.WriteString(".")
			sb.WriteString(fn)
			sb.WriteString(" = (...args) => { return JSON.parse(")
			sb.WriteString(InvokeFunction)
			sb.WriteString(`("`)
			sb.WriteString(m.Name())
			sb.WriteString(`", "`)
			sb.WriteString(fn)
			sb.WriteString(`", JSON.stringify(args))) };`)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
