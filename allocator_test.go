package gmalloc_test

import (
	"encoding/json"
	"io"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/heapwerk/gmalloc"
	"github.com/heapwerk/gmalloc/grower"
	"github.com/heapwerk/gmalloc/memutils"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func newTestAllocator(t *testing.T, arenaSize int) *gmalloc.Allocator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard))

	allocator, err := gmalloc.New(logger, grower.NewArenaGrower(make([]byte, arenaSize), 4096), gmalloc.CreateOptions{})
	require.NoError(t, err)
	return allocator
}

func TestNewRequiresGrower(t *testing.T) {
	_, err := gmalloc.New(nil, nil, gmalloc.CreateOptions{})
	require.Error(t, err)
}

func TestAllocateZeroSize(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	first, err := allocator.Allocate(0, 0)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := allocator.Allocate(0, 0)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.NotEqual(t, first, second)

	allocator.Deallocate(first, 0, 0)
	allocator.Deallocate(second, 0, 0)

	require.Equal(t, 0, allocator.Stats().AllocationCount)
	require.NoError(t, allocator.Validate())
}

func TestAllocateAlignment(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	for _, align := range []uint{8, 16, 64, 256} {
		ptr, err := allocator.Allocate(40, align)
		require.NoError(t, err)
		require.Zero(t, uintptr(ptr)%uintptr(align), "alignment %d", align)
	}
}

func TestAllocateRejectsBadArguments(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	_, err := allocator.Allocate(-1, 8)
	require.Error(t, err)

	_, err = allocator.Allocate(64, 3)
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
}

func TestAllocateOutOfMemory(t *testing.T) {
	allocator := newTestAllocator(t, 8192)

	_, err := allocator.Allocate(1<<20, 8)
	require.Error(t, err)
	require.True(t, errors.Is(err, gmalloc.ErrOutOfMemory))

	// A reasonable request still succeeds afterward.
	ptr, err := allocator.Allocate(64, 8)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.NoError(t, allocator.Validate())
}

func TestDeallocateNilIsIgnored(t *testing.T) {
	allocator := newTestAllocator(t, 8192)
	allocator.Deallocate(nil, 64, 8)
	require.Equal(t, 0, allocator.Stats().AllocationCount)
}

func TestResizePreservesContent(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	ptr, err := allocator.Allocate(64, 8)
	require.NoError(t, err)

	content := unsafe.Slice((*byte)(ptr), 64)
	for i := range content {
		content[i] = byte(i * 7)
	}

	// Grow, possibly relocating.
	grown, err := allocator.Resize(ptr, 64, 256, 8)
	require.NoError(t, err)
	grownContent := unsafe.Slice((*byte)(grown), 256)
	for i := 0; i < 64; i++ {
		require.Equal(t, byte(i*7), grownContent[i])
	}

	// Shrink back down.
	shrunk, err := allocator.Resize(grown, 256, 16, 8)
	require.NoError(t, err)
	shrunkContent := unsafe.Slice((*byte)(shrunk), 16)
	for i := 0; i < 16; i++ {
		require.Equal(t, byte(i*7), shrunkContent[i])
	}

	allocator.Deallocate(shrunk, 16, 8)
	require.Equal(t, 0, allocator.Stats().AllocationCount)
	require.NoError(t, allocator.Validate())
}

func TestResizeNilAllocates(t *testing.T) {
	allocator := newTestAllocator(t, 8192)

	ptr, err := allocator.Resize(nil, 0, 64, 8)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.Equal(t, 1, allocator.Stats().AllocationCount)
}

func TestResizeFailureLeavesAllocationIntact(t *testing.T) {
	allocator := newTestAllocator(t, 8192)

	ptr, err := allocator.Allocate(64, 8)
	require.NoError(t, err)
	content := unsafe.Slice((*byte)(ptr), 64)
	for i := range content {
		content[i] = byte(i)
	}

	_, err = allocator.Resize(ptr, 64, 1<<20, 8)
	require.Error(t, err)
	require.True(t, errors.Is(err, gmalloc.ErrOutOfMemory))

	require.Equal(t, 1, allocator.Stats().AllocationCount)
	for i := range content {
		require.Equal(t, byte(i), content[i])
	}
	require.NoError(t, allocator.Validate())
}

func TestStats(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	var ptrs []unsafe.Pointer
	for i := 0; i < 3; i++ {
		ptr, err := allocator.Allocate(32, 8)
		require.NoError(t, err)
		ptrs = append(ptrs, ptr)
	}

	stats := allocator.Stats()
	require.Equal(t, 3, stats.AllocationCount)
	require.Equal(t, 96, stats.AllocationBytes)
	require.Equal(t, 1, stats.BlockCount)

	detailed := allocator.DetailedStats()
	require.Equal(t, stats.AllocationCount, detailed.AllocationCount)
	require.Equal(t, 32, detailed.AllocationSizeMin)
	require.Equal(t, 32, detailed.AllocationSizeMax)

	for _, ptr := range ptrs {
		allocator.Deallocate(ptr, 32, 8)
	}
	require.Equal(t, 0, allocator.Stats().AllocationCount)
}

func TestBuildStatsString(t *testing.T) {
	allocator := newTestAllocator(t, 1<<16)

	ptr, err := allocator.Allocate(128, 8)
	require.NoError(t, err)

	str := allocator.BuildStatsString(true)
	require.True(t, json.Valid([]byte(str)), "invalid json: %s", str)
	require.Contains(t, str, "\"Total\"")
	require.Contains(t, str, "\"DetailedMap\"")

	str = allocator.BuildStatsString(false)
	require.True(t, json.Valid([]byte(str)))
	require.NotContains(t, str, "\"DetailedMap\"")

	allocator.Deallocate(ptr, 128, 8)
}

func TestLogUnreleasedAllocations(t *testing.T) {
	allocator := newTestAllocator(t, 8192)

	require.NoError(t, allocator.LogUnreleasedAllocations())

	ptr, err := allocator.Allocate(64, 8)
	require.NoError(t, err)
	require.Error(t, allocator.LogUnreleasedAllocations())

	allocator.Deallocate(ptr, 64, 8)
	require.NoError(t, allocator.LogUnreleasedAllocations())
}

func TestExternallySynchronized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard))
	allocator, err := gmalloc.New(logger, grower.NewArenaGrower(make([]byte, 8192), 0), gmalloc.CreateOptions{
		ExternallySynchronized: true,
	})
	require.NoError(t, err)

	ptr, err := allocator.Allocate(64, 8)
	require.NoError(t, err)
	allocator.Deallocate(ptr, 64, 8)
	require.NoError(t, allocator.Validate())
}
