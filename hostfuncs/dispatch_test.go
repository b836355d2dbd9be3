package hostfuncs

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roastedroot/quickjs4j/bridge"
	"github.com/roastedroot/quickjs4j/internal/abi"
)

type harness struct {
	arena      *abi.Arena
	tracker    *abi.Tracker
	alloc      *abi.Allocator
	dispatcher *Dispatcher
	invoker    *bridge.Invoker
}

// newHarness wires the guest marshaller straight to the dispatcher, with
// both sides sharing one simulated linear memory.
func newHarness(t *testing.T, opts ...DispatcherOption) *harness {
	t.Helper()

	reg, err := NewRegistry(
		WithMiddleware(PanicRecoveryMiddleware()),
		WithModule(newCalc(t)),
	)
	require.NoError(t, err)

	h := &harness{arena: abi.NewArena()}
	h.tracker = abi.NewTracker(h.arena)
	h.alloc = abi.NewAllocator(h.tracker, h.arena)
	h.dispatcher = NewDispatcher(reg, opts...)

	guest := LocalAllocator(h.alloc)
	h.invoker = bridge.NewInvoker(h.alloc, func(ctx context.Context, params ...uint32) uint32 {
		var p [6]uint32
		copy(p[:], params)
		desc, err := h.dispatcher.Dispatch(ctx, h.arena, guest, p)
		if err != nil {
			panic(err)
		}
		return desc
	})
	return h
}

func (h *harness) assertBalanced(t *testing.T) {
	t.Helper()
	assert.Empty(t, h.tracker.Outstanding(), "leaked buffers")
	assert.Empty(t, h.tracker.Violations(), "bad frees")
	assert.ElementsMatch(t, h.tracker.Allocs(), h.tracker.Frees())
}

func TestDispatch_EndToEnd(t *testing.T) {
	h := newHarness(t)

	out, err := h.invoker.JavaInvoke(context.Background(), "calc", "add", "[40,2]")
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	sum, err := bridge.CallBuiltinAs[int](context.Background(), h.invoker, "calc", "add", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, sum)

	h.assertBalanced(t)
}

func TestDispatch_UnknownBuiltinTraps(t *testing.T) {
	h := newHarness(t)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrNotFound)
	}()
	_, _ = h.invoker.JavaInvoke(context.Background(), "calc", "mul", "[]")
}

func TestDispatch_RequestTooLarge(t *testing.T) {
	h := newHarness(t, WithMaxRequestSize(8))

	_, err := h.dispatcher.ReadRequest(h.arena, [6]uint32{0, 4, 0, 3, 0, 9})
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestDispatch_ReadRequestOutOfBounds(t *testing.T) {
	h := newHarness(t)

	_, err := h.dispatcher.ReadRequest(h.arena, [6]uint32{0xFFFFFFF0, 4, 0, 0, 0, 0})
	assert.ErrorIs(t, err, abi.ErrOutOfBounds)
}

func TestDispatch_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHarness(t, WithLogger(zap.New(core)))

	p := stageRequest(t, h, "calc", "fail", "[]")
	_, err := h.dispatcher.Dispatch(context.Background(), h.arena, LocalAllocator(h.alloc), p)
	require.Error(t, err)

	var hostErr *HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, KindInternal, hostErr.Kind)

	warned := logs.FilterMessage("builtin invocation failed").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "fail", warned[0].ContextMap()["function"])
}

func TestDispatch_ResultOwnedByGuest(t *testing.T) {
	h := newHarness(t)

	p := stageRequest(t, h, "calc", "add", "[2,3]")
	desc, err := h.dispatcher.Dispatch(context.Background(), h.arena, LocalAllocator(h.alloc), p)
	require.NoError(t, err)

	data, wp, err := ReadWide(h.arena, desc)
	require.NoError(t, err)
	assert.Equal(t, "5", string(data))
	assert.Equal(t, uint32(1), wp.Len)

	// Request strings plus the result payload and its descriptor.
	assert.Len(t, h.tracker.Outstanding(), 5)
}

// stageRequest copies the three request strings into guest memory.
func stageRequest(t *testing.T, h *harness, parts ...string) [6]uint32 {
	t.Helper()
	require.Len(t, parts, 3)

	var p [6]uint32
	for i, s := range parts {
		b := abi.Stage(h.alloc, []byte(s))
		p[2*i], p[2*i+1] = b.Addr(), b.Len()
	}
	return p
}

func TestReadString(t *testing.T) {
	arena := abi.NewArena()
	require.True(t, arena.Write(64, []byte("hello")))

	s, err := ReadString(arena, 64, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = ReadString(arena, abi.ZeroSizeSentinel, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ReadString(arena, 64, 5, 4)
	assert.ErrorIs(t, err, ErrRequestTooLarge)
}

func TestWriteResult_FreeWide(t *testing.T) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	guest := LocalAllocator(abi.NewAllocator(tracker, arena))
	ctx := context.Background()

	blob := []byte(strings.Repeat("bytecode", 100))
	desc, err := WriteResult(ctx, arena, guest, blob)
	require.NoError(t, err)
	assert.Len(t, tracker.Outstanding(), 2)

	data, wp, err := ReadWide(arena, desc)
	require.NoError(t, err)
	assert.Equal(t, blob, data)
	assert.Equal(t, uint32(len(blob)), wp.Len)

	require.NoError(t, FreeWide(ctx, arena, guest, desc))
	assert.Empty(t, tracker.Outstanding())
	assert.Empty(t, tracker.Violations())
}

func TestWriteResult_Empty(t *testing.T) {
	arena := abi.NewArena()
	tracker := abi.NewTracker(arena)
	guest := LocalAllocator(abi.NewAllocator(tracker, arena))
	ctx := context.Background()

	desc, err := WriteResult(ctx, arena, guest, nil)
	require.NoError(t, err)

	data, wp, err := ReadWide(arena, desc)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, uint32(abi.ZeroSizeSentinel), wp.Addr)

	require.NoError(t, FreeWide(ctx, arena, guest, desc))
	assert.Empty(t, tracker.Outstanding())
}

func TestWriteResult_OutOfMemory(t *testing.T) {
	arena := abi.NewArena(abi.WithInitialPages(1), abi.WithMaxPages(1))
	guest := LocalAllocator(abi.NewAllocator(arena, arena))

	_, err := WriteResult(context.Background(), arena, guest, make([]byte, 2*abi.PageSize))
	assert.ErrorIs(t, err, abi.ErrOutOfMemory)
}

func TestLocalAllocator_ContractViolation(t *testing.T) {
	arena := abi.NewArena()
	guest := LocalAllocator(abi.NewAllocator(arena, arena))

	err := guest.Free(context.Background(), 0, 4, 1)
	assert.ErrorIs(t, err, abi.ErrContractViolation)
}

func TestResultSize(t *testing.T) {
	n, err := resultSize(abi.PageSize)
	require.NoError(t, err)
	assert.Equal(t, uint32(abi.PageSize), n)

	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed 32 bits")
	}
	tooBig := uint64(math.MaxUint32) + 1
	_, err = resultSize(int(tooBig))
	assert.ErrorIs(t, err, ErrResultTooLarge)
}

func TestLocalAllocator_DoubleFree(t *testing.T) {
	arena := abi.NewArena()
	guest := LocalAllocator(abi.NewAllocator(arena, arena))
	ctx := context.Background()

	addr, err := guest.Realloc(ctx, 0, 0, 1, 16)
	require.NoError(t, err)
	require.NoError(t, guest.Free(ctx, addr, 16, 1))

	err = guest.Free(ctx, addr, 16, 1)
	assert.ErrorIs(t, err, abi.ErrContractViolation)
}
