package host

// Hand-assembled guest modules for exercising the host side against real
// wazero instances.

// memoryOnlyWasm exports one page of memory and nothing else.
var memoryOnlyWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

const (
	wasmI32      = 0x7f
	wasmFuncType = 0x60

	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Const  = 0x41
	opI32Add    = 0x6a
	opI32Sub    = 0x6b
	opI32And    = 0x71
	opCall      = 0x10
	opDrop      = 0x1a
	opUnreach   = 0x00
	opEnd       = 0x0b
)

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func vec(items ...[]byte) []byte {
	return concat(uleb(uint32(len(items))), concat(items...))
}

func wasmName(s string) []byte {
	return concat(uleb(uint32(len(s))), []byte(s))
}

func section(id byte, items ...[]byte) []byte {
	payload := vec(items...)
	return concat([]byte{id}, uleb(uint32(len(payload))), payload)
}

func funcType(params, results int) []byte {
	out := []byte{wasmFuncType}
	out = append(out, uleb(uint32(params))...)
	for i := 0; i < params; i++ {
		out = append(out, wasmI32)
	}
	out = append(out, uleb(uint32(results))...)
	for i := 0; i < results; i++ {
		out = append(out, wasmI32)
	}
	return out
}

func body(locals []byte, code ...byte) []byte {
	b := concat(locals, code)
	return concat(uleb(uint32(len(b))), b)
}

// bridgeGuestWasm builds a guest that imports chicory.invoke and
// chicory.log_message and exports:
//
//	memory                 one page
//	canonical_abi_realloc  bump allocator starting at 1024, no copying
//	canonical_abi_free     counts calls in the "frees" global
//	call                   forwards its six parameters to chicory.invoke
//	log                    forwards (ptr, len) to chicory.log_message
func bridgeGuestWasm(hostModule string) []byte {
	types := section(1,
		funcType(4, 1), // realloc
		funcType(3, 0), // free
		funcType(6, 1), // invoke / call
		funcType(2, 0), // log_message / log
	)
	imports := section(2,
		concat(wasmName(hostModule), wasmName("invoke"), []byte{0x00}, uleb(2)),
		concat(wasmName(hostModule), wasmName("log_message"), []byte{0x00}, uleb(3)),
	)
	// Imported functions take indices 0 and 1.
	functions := section(3, uleb(0), uleb(1), uleb(2), uleb(3))
	memory := section(5, []byte{0x00, 0x01})
	globals := section(6,
		[]byte{wasmI32, 0x01, opI32Const, 0x80, 0x08, opEnd}, // heap top = 1024
		[]byte{wasmI32, 0x01, opI32Const, 0x00, opEnd},       // frees = 0
	)
	exports := section(7,
		concat(wasmName("memory"), []byte{0x02, 0x00}),
		concat(wasmName(reallocExport), []byte{0x00, 0x02}),
		concat(wasmName(freeExport), []byte{0x00, 0x03}),
		concat(wasmName("call"), []byte{0x00, 0x04}),
		concat(wasmName("log"), []byte{0x00, 0x05}),
		concat(wasmName("frees"), []byte{0x03, 0x01}),
	)

	// result = (heap + align - 1) & -align; heap = result + new_size
	realloc := body([]byte{0x01, 0x01, wasmI32},
		opGlobalGet, 0x00,
		opLocalGet, 0x02,
		opI32Add,
		opI32Const, 0x01,
		opI32Sub,
		opI32Const, 0x00,
		opLocalGet, 0x02,
		opI32Sub,
		opI32And,
		opLocalSet, 0x04,
		opLocalGet, 0x04,
		opLocalGet, 0x03,
		opI32Add,
		opGlobalSet, 0x00,
		opLocalGet, 0x04,
		opEnd,
	)
	free := body([]byte{0x00},
		opGlobalGet, 0x01,
		opI32Const, 0x01,
		opI32Add,
		opGlobalSet, 0x01,
		opEnd,
	)
	call := body([]byte{0x00},
		opLocalGet, 0x00, opLocalGet, 0x01, opLocalGet, 0x02,
		opLocalGet, 0x03, opLocalGet, 0x04, opLocalGet, 0x05,
		opCall, 0x00,
		opEnd,
	)
	log := body([]byte{0x00},
		opLocalGet, 0x00, opLocalGet, 0x01,
		opCall, 0x01,
		opEnd,
	)
	code := section(10, realloc, free, call, log)

	header := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	return concat(header, types, imports, functions, memory, globals, exports, code)
}

// stderrMessage is what noisyGuestWasm writes before trapping.
const stderrMessage = "boom: builtin table corrupt\n"

// noisyGuestWasm builds a guest whose "fail" export writes stderrMessage to
// fd 2 through WASI fd_write and then traps. Its allocator exports are stubs.
func noisyGuestWasm() []byte {
	types := section(1,
		funcType(4, 1), // realloc / fd_write
		funcType(3, 0), // free
		funcType(0, 0), // fail
	)
	imports := section(2,
		concat(wasmName("wasi_snapshot_preview1"), wasmName("fd_write"), []byte{0x00}, uleb(0)),
	)
	functions := section(3, uleb(0), uleb(1), uleb(2))
	memory := section(5, []byte{0x00, 0x01})
	exports := section(7,
		concat(wasmName("memory"), []byte{0x02, 0x00}),
		concat(wasmName(reallocExport), []byte{0x00, 0x01}),
		concat(wasmName(freeExport), []byte{0x00, 0x02}),
		concat(wasmName("fail"), []byte{0x00, 0x03}),
	)

	realloc := body([]byte{0x00}, opI32Const, 0x30, opEnd)
	free := body([]byte{0x00}, opEnd)
	fail := body([]byte{0x00},
		opI32Const, 0x02, // fd
		opI32Const, 0x10, // iovs
		opI32Const, 0x01, // iovs_len
		opI32Const, 0x08, // nwritten
		opCall, 0x00,
		opDrop,
		opUnreach,
		opEnd,
	)
	code := section(10, realloc, free, fail)

	// iovec {buf: 32, len} at 16, message at 32.
	msgLen := uint32(len(stderrMessage))
	segment := concat(
		[]byte{0x20, 0x00, 0x00, 0x00},
		[]byte{byte(msgLen), byte(msgLen >> 8), byte(msgLen >> 16), byte(msgLen >> 24)},
		make([]byte, 8),
		[]byte(stderrMessage),
	)
	data := section(11, concat([]byte{0x00, opI32Const, 0x10, opEnd}, uleb(uint32(len(segment))), segment))

	header := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	return concat(header, types, imports, functions, memory, exports, code, data)
}
