package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastedroot/quickjs4j/internal/abi"
)

// fakeHost plays the host side of the protocol against the guest allocator:
// it reads the (ptr, len) arguments, lets respond compute a result, and
// returns it as a payload plus wide pointer allocated through Realloc.
type fakeHost struct {
	alloc   *abi.Allocator
	respond func(args [][]byte) []byte

	calls       [][]uint32
	lastPayload abi.Allocation
	lastDesc    abi.Allocation
}

func (h *fakeHost) Import(_ context.Context, params ...uint32) uint32 {
	h.calls = append(h.calls, append([]uint32(nil), params...))
	mem := h.alloc.Memory()

	args := make([][]byte, 0, len(params)/2)
	for i := 0; i+1 < len(params); i += 2 {
		ptr, n := params[i], params[i+1]
		if n == 0 {
			args = append(args, []byte{})
			continue
		}
		data, ok := mem.Read(ptr, n)
		if !ok {
			panic("fake host: argument out of bounds")
		}
		args = append(args, append([]byte(nil), data...))
	}

	out := h.respond(args)
	size := uint32(len(out))
	payload := h.alloc.Realloc(0, 0, 1, size)
	if size > 0 && !mem.Write(payload, out) {
		panic("fake host: payload write out of bounds")
	}
	desc := h.alloc.Realloc(0, 0, 1, abi.WidePointerSize)
	if err := abi.WriteWidePointer(mem, desc, abi.WidePointer{Addr: payload, Len: size}); err != nil {
		panic(err)
	}

	h.lastPayload = abi.Allocation{Addr: payload, Size: size, Align: 1}
	h.lastDesc = abi.Allocation{Addr: desc, Size: abi.WidePointerSize, Align: 1}
	return desc
}

func reverse(args [][]byte) []byte {
	in := args[0]
	out := make([]byte, len(in))
	for i, b := range in {
		out[len(in)-1-i] = b
	}
	return out
}

func newHarness(respond func([][]byte) []byte) (*Invoker, *fakeHost, *abi.Tracker) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	alloc := abi.NewAllocator(tracker, arena)
	host := &fakeHost{alloc: alloc, respond: respond}
	return NewInvoker(alloc, host.Import), host, tracker
}

// assertBalanced checks that every allocation was freed exactly once with the
// size and alignment it was made with.
func assertBalanced(t *testing.T, tracker *abi.Tracker) {
	t.Helper()
	assert.Empty(t, tracker.Outstanding(), "leaked buffers")
	assert.Empty(t, tracker.Violations(), "bad frees")
	assert.ElementsMatch(t, tracker.Allocs(), tracker.Frees())
}

func TestInvoke_ReverseRoundTrip(t *testing.T) {
	inv, host, tracker := newHarness(reverse)

	out, err := inv.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "olleh", out)

	assertBalanced(t, tracker)

	frees := tracker.Frees()
	require.Len(t, frees, 3)
	assert.Equal(t, host.lastPayload, frees[0], "payload is freed first")
	assert.Equal(t, host.lastDesc, frees[1], "descriptor is freed second")
}

func TestInvoke_EmptyArgument(t *testing.T) {
	inv, host, tracker := newHarness(reverse)

	out, err := inv.Invoke(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	require.Len(t, host.calls, 1)
	require.Len(t, host.calls[0], 2)
	assert.NotZero(t, host.calls[0][0], "empty arguments still get a non-null pointer")
	assert.Zero(t, host.calls[0][1])

	assertBalanced(t, tracker)
}

func TestInvoke_ParameterLayout(t *testing.T) {
	inv, host, tracker := newHarness(func(args [][]byte) []byte {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = string(a)
		}
		return []byte(strings.Join(parts, "|"))
	})

	out, err := inv.JavaInvoke(context.Background(), "calc", "add", "[1,2]")
	require.NoError(t, err)
	assert.Equal(t, "calc|add|[1,2]", out)

	require.Len(t, host.calls, 1)
	params := host.calls[0]
	require.Len(t, params, 6)
	assert.Equal(t, uint32(4), params[1])
	assert.Equal(t, uint32(3), params[3])
	assert.Equal(t, uint32(5), params[5])

	assertBalanced(t, tracker)
}

func TestInvoke_Unicode(t *testing.T) {
	inv, _, tracker := newHarness(func(args [][]byte) []byte { return args[0] })

	out, err := inv.Invoke(context.Background(), "héllo wörld 🚀")
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld 🚀", out)
	assertBalanced(t, tracker)
}

func TestInvoke_InvalidText(t *testing.T) {
	tests := []struct {
		name   string
		result []byte
		offset int
	}{
		{name: "unpaired continuation byte", result: []byte{0x80}, offset: 0},
		{name: "truncated sequence", result: []byte("ab\xe2\x82"), offset: 2},
		{name: "invalid byte after text", result: []byte("olleh\xff"), offset: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, _, tracker := newHarness(func([][]byte) []byte { return tt.result })

			_, err := inv.Invoke(context.Background(), "hello")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidText)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, uint32(len(tt.result)), decodeErr.Len)
			assert.Equal(t, tt.offset, decodeErr.Offset)

			assertBalanced(t, tracker)
		})
	}
}

func TestInvoke_RecoversAfterDecodeError(t *testing.T) {
	calls := 0
	inv, _, tracker := newHarness(func(args [][]byte) []byte {
		calls++
		if calls == 1 {
			return []byte{0xC0}
		}
		return reverse(args)
	})

	_, err := inv.Invoke(context.Background(), "first")
	require.Error(t, err)

	out, err := inv.Invoke(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "dnoces", out)
	assertBalanced(t, tracker)
}

func TestInvoke_EmptyResult(t *testing.T) {
	inv, _, tracker := newHarness(func([][]byte) []byte { return nil })

	out, err := inv.Invoke(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Empty(t, out)
	assertBalanced(t, tracker)
}

func TestInvoke_NullDescriptorPanics(t *testing.T) {
	arena := abi.NewArena()
	inv := NewInvoker(abi.NewAllocator(arena, arena), func(context.Context, ...uint32) uint32 { return 0 })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrNullDescriptor)
	}()
	_, _ = inv.Invoke(context.Background(), "x")
}

func TestNotify_FreesArguments(t *testing.T) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	alloc := abi.NewAllocator(tracker, arena)

	var got string
	inv := NewInvoker(alloc, func(_ context.Context, params ...uint32) uint32 {
		data, ok := arena.Read(params[0], params[1])
		require.True(t, ok)
		got = string(data)
		return 0
	})

	inv.Notify(context.Background(), `{"level":"INFO"}`)
	assert.Equal(t, `{"level":"INFO"}`, got)
	assertBalanced(t, tracker)
}

func TestCall_NoAllocation(t *testing.T) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	alloc := abi.NewAllocator(tracker, arena)

	var seen []uint32
	inv := NewInvoker(alloc, func(_ context.Context, params ...uint32) uint32 {
		seen = params
		return 42
	})

	assert.Equal(t, uint32(42), inv.Call(context.Background(), 7, 9))
	assert.Equal(t, []uint32{7, 9}, seen)
	assert.Empty(t, tracker.Allocs())
}

func TestNewInvoker_NilAllocatorUsesCurrentDefault(t *testing.T) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	restore := abi.SetDefault(abi.NewAllocator(tracker, arena))
	defer restore()

	var seen []byte
	inv := NewInvoker(nil, func(_ context.Context, params ...uint32) uint32 {
		data, ok := arena.Read(params[0], params[1])
		require.True(t, ok)
		seen = append([]byte(nil), data...)
		return 0
	})
	inv.Notify(context.Background(), "hello")

	assert.Equal(t, []byte("hello"), seen)
	assertBalanced(t, tracker)
}
