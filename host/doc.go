// Package host runs guest modules that speak the quickjs4j foreign-call
// protocol on wazero.
//
// It instantiates the "chicory" host module, whose invoke function serves
// builtin calls from a hostfuncs.Registry and whose log_message function
// forwards guest log records to zap. Results cross back into the guest
// through the guest's own canonical_abi_realloc export, described by a wide
// pointer the guest frees.
package host
