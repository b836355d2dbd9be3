// Package bridge marshals calls from the guest to host imports.
//
// Text arguments are staged in guest memory and passed to the import as
// (address, length) pairs. The import answers with the address of an 8-byte
// wide pointer [data_address, data_length], both regions allocated by the
// host through canonical_abi_realloc. The Invoker reads the payload, checks
// it is valid UTF-8, copies it into a Go string, and frees the payload and
// then the descriptor before returning, including when decoding fails.
package bridge
