// Package hostfuncs implements the host half of the chicory bridge without
// depending on a WASM runtime.
//
// Builtins are grouped in named modules. A guest calls one through the
// chicory.invoke import with three strings: module name, function name and a
// JSON array of arguments. The Dispatcher decodes them from guest memory,
// runs the builtin, and hands the JSON result back as a payload plus an
// 8-byte wide pointer, both allocated through the guest's
// canonical_abi_realloc export. The guest owns and frees both.
package hostfuncs
