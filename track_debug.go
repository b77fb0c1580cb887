//go:build debug_mem_utils

package gmalloc

import (
	"fmt"

	"github.com/dolthub/swiss"
)

type trackedAllocation struct {
	size  int
	align uint
}

// liveTracker records every live allocation so that layout echoes can be checked. It only
// exists in builds with the debug_mem_utils tag; production builds compile it down to
// nothing.
type liveTracker struct {
	allocations *swiss.Map[uintptr, trackedAllocation]
}

func (t *liveTracker) init() {
	t.allocations = swiss.NewMap[uintptr, trackedAllocation](42)
}

func (t *liveTracker) trackAllocate(payload uintptr, size int, align uint) {
	_, ok := t.allocations.Get(payload)
	if ok {
		panic(fmt.Sprintf("address %#x was handed out twice without an intervening free", payload))
	}
	t.allocations.Put(payload, trackedAllocation{size: size, align: align})
}

func (t *liveTracker) trackFree(payload uintptr, size int, align uint) {
	tracked, ok := t.allocations.Get(payload)
	if !ok {
		panic(fmt.Sprintf("attempted to free %#x, which is not a live allocation", payload))
	}
	if tracked.size != size || tracked.align != align {
		panic(fmt.Sprintf("attempted to free %#x with size %d and alignment %d, but it was allocated with size %d and alignment %d",
			payload, size, align, tracked.size, tracked.align))
	}
	t.allocations.Delete(payload)
}
