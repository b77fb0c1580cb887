package gmalloc

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/heapwerk/gmalloc/heap"
	"github.com/heapwerk/gmalloc/internal/utils"
	"github.com/heapwerk/gmalloc/memutils"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/slog"
)

// Allocator is the public face of gmalloc: it owns one heap, the mutex that serializes
// access to it, and the debug tracker of live allocations. Create one with New.
type Allocator struct {
	mutex  utils.OptionalMutex
	logger *slog.Logger
	heap   *heap.Heap
	live   liveTracker
}

// Allocate returns a pointer to at least size bytes of memory whose address is a multiple
// of align. The content of the memory is unspecified.
//
// size may be 0; the request is rounded up internally so the returned pointer is still
// real, unique, and must still be deallocated. align must be a power of two, or 0 to
// accept the minimum alignment of 8.
//
// When no free block fits and the growth strategy cannot extend the heap, the returned
// error matches ErrOutOfMemory.
func (a *Allocator) Allocate(size int, align uint) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.Errorf("invalid allocation size %d", size)
	}
	align = defaultedAlign(align)
	if err := memutils.CheckPow2(align, "align"); err != nil {
		return nil, err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	payload, err := a.heap.Acquire(size, align)
	if err != nil {
		a.logger.Error("allocation failed",
			slog.Int("Size", size),
			slog.Uint64("Align", uint64(align)),
			slog.Any("error", err),
		)
		return nil, errors.Mark(err, ErrOutOfMemory)
	}

	a.live.trackAllocate(payload, size, align)
	memutils.DebugValidate(a.heap)

	return unsafe.Pointer(payload), nil
}

// Deallocate returns ptr's memory to the allocator. size and align must echo the values
// the memory was most recently allocated or resized with. A nil ptr is ignored.
//
// Passing a pointer that is not live, or the wrong layout, is undefined behavior. Builds
// with the debug_mem_utils tag panic on both.
func (a *Allocator) Deallocate(ptr unsafe.Pointer, size int, align uint) {
	if ptr == nil {
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.live.trackFree(uintptr(ptr), size, defaultedAlign(align))
	a.heap.Release(uintptr(ptr))
	memutils.DebugValidate(a.heap)
}

// Resize changes the allocation at ptr to newSize bytes, preserving the first
// min(oldSize, newSize) bytes of content. The allocation is resized in place when the
// surrounding blocks allow it; otherwise it is moved, and the returned pointer replaces
// ptr, which must no longer be used. oldSize and align must echo the allocation's current
// layout, and the result must later be deallocated with newSize and align.
//
// On failure the returned error matches ErrOutOfMemory and the allocation at ptr is left
// live and intact.
func (a *Allocator) Resize(ptr unsafe.Pointer, oldSize, newSize int, align uint) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.Allocate(newSize, align)
	}
	if newSize < 0 {
		return nil, errors.Errorf("invalid allocation size %d", newSize)
	}
	align = defaultedAlign(align)

	a.mutex.Lock()
	defer a.mutex.Unlock()

	payload := uintptr(ptr)
	if a.heap.TryResizeInPlace(payload, newSize) {
		a.live.trackFree(payload, oldSize, align)
		a.live.trackAllocate(payload, newSize, align)
		memutils.DebugValidate(a.heap)
		return ptr, nil
	}

	newPayload, err := a.heap.Acquire(newSize, align)
	if err != nil {
		a.logger.Error("resize failed",
			slog.Int("OldSize", oldSize),
			slog.Int("NewSize", newSize),
			slog.Any("error", err),
		)
		return nil, errors.Mark(err, ErrOutOfMemory)
	}

	copySize := oldSize
	if newSize < copySize {
		copySize = newSize
	}
	copy(
		unsafe.Slice((*byte)(unsafe.Pointer(newPayload)), copySize),
		unsafe.Slice((*byte)(ptr), copySize),
	)

	a.live.trackFree(payload, oldSize, align)
	a.heap.Release(payload)
	a.live.trackAllocate(newPayload, newSize, align)
	memutils.DebugValidate(a.heap)

	return unsafe.Pointer(newPayload), nil
}

// Stats retrieves the allocator's totals from its running counters. This method is cheap
// to call.
func (a *Allocator) Stats() memutils.Statistics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var stats memutils.Statistics
	a.heap.AddStatistics(&stats)
	return stats
}

// DetailedStats collects block-level statistics with a full walk of the heap. It is meant
// for diagnostics, not for per-operation use.
func (a *Allocator) DetailedStats() memutils.DetailedStatistics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.heap.AddDetailedStatistics(&stats)
	return stats
}

// Validate performs deep consistency checks on the heap and returns an error describing
// the first inconsistency found. When the allocator is functioning correctly it cannot
// fail.
func (a *Allocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.heap.Validate()
}

// BuildStatsString writes a JSON blob describing the allocator's current state. When
// detailedMap is true it includes a block-by-block map of every span, which requires a
// full walk of the heap.
func (a *Allocator) BuildStatsString(detailedMap bool) string {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	writer := jwriter.NewWriter()
	rootObj := writer.Object()

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.heap.AddDetailedStatistics(&stats)

	totalObj := rootObj.Name("Total").Object()
	stats.PrintJson(totalObj)
	totalObj.End()

	if detailedMap {
		mapObj := rootObj.Name("DetailedMap").Object()
		a.heap.PrintDetailedMap(mapObj)
		mapObj.End()
	}

	rootObj.End()
	return string(writer.Bytes())
}

// LogUnreleasedAllocations logs every live allocation at error level and returns an error
// when any exist. Call it when the allocator is expected to be empty, for instance before
// discarding it.
func (a *Allocator) LogUnreleasedAllocations() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.heap.AllocationCount() == 0 {
		return nil
	}

	_ = a.heap.VisitAllBlocks(func(payload uintptr, size int, free bool) error {
		if free {
			return nil
		}

		a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
			slog.Uint64("address", uint64(payload)),
			slog.Int("size", size),
		)
		return nil
	})

	return errors.Newf("%d allocations were not freed", a.heap.AllocationCount())
}

func defaultedAlign(align uint) uint {
	if align == 0 {
		return heap.MinAlign
	}
	return align
}
