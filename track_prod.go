//go:build !debug_mem_utils

package gmalloc

// liveTracker records every live allocation so that layout echoes can be checked. It only
// exists in builds with the debug_mem_utils tag; production builds compile it down to
// nothing.
type liveTracker struct{}

func (t *liveTracker) init() {}

func (t *liveTracker) trackAllocate(payload uintptr, size int, align uint) {}

func (t *liveTracker) trackFree(payload uintptr, size int, align uint) {}
