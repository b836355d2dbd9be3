// Package runtime wires the bridge into a guest's scripting engine: it
// applies the engine feature configuration and installs the plugin flag and
// the java_invoke global that scripts use to reach host builtins.
package runtime
