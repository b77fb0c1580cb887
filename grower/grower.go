// Package grower provides the growth strategies that supply backing address space to a
// gmalloc heap. A strategy is chosen when the allocator is constructed and never changes
// afterward: the BumpGrower's single monotonic boundary cannot be mixed with independent
// mappings mid-life.
package grower

import "os"

// Region is a range of raw address space handed to the heap by a Grower. Its content is
// unspecified; callers must not assume it is zeroed.
type Region struct {
	Base uintptr
	Size int
}

// Grower obtains additional address space for a heap. Grow returns a region of at least
// minBytes, usually more: requests are rounded up to the strategy's extension chunk size
// to amortize the cost of growth calls. A failed growth is reported once and never retried
// internally.
//
// Growers are not safe for concurrent use. The allocator's guard serializes calls to Grow,
// and implementations must never allocate through the allocator they back.
type Grower interface {
	Grow(minBytes int) (Region, error)
}

func roundToPages(bytes int) int {
	page := os.Getpagesize()
	return (bytes + page - 1) &^ (page - 1)
}
