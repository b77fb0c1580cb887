// Package gmalloc is a general-purpose free-list memory allocator. It manages address
// space obtained from a pluggable growth strategy (see the grower package) outside the
// Go garbage collector, and hands out raw payload pointers that the caller owns until
// it deallocates them.
//
// Allocation metadata lives in band: a one-word header precedes every payload, and free
// blocks carry their free-list links inside the freed payload itself, so the allocator
// needs no side tables and performs no Go allocations on its hot paths.
//
// An Allocator is safe for concurrent use by default; a single internal mutex serializes
// every operation. Callers that already serialize access can opt out with
// CreateOptions.ExternallySynchronized.
//
// Deallocate and Resize require the caller to echo the size and alignment the memory was
// allocated with, which is what lets headers stay one word. Production builds do not
// check the echo; builds with the debug_mem_utils tag track every live allocation and
// panic on double frees, unknown pointers, and layout mismatches.
package gmalloc
