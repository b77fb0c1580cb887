// Package heap implements the free-list manager at the core of gmalloc: in-band block
// headers over raw address space, first-fit search with block splitting, and eager
// coalescing of adjacent free blocks on release.
//
// A Heap is not safe for concurrent use. The gmalloc.Allocator serializes every call,
// including the growth requests the Heap issues to its grower.
package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/heapwerk/gmalloc/grower"
	"github.com/heapwerk/gmalloc/memutils"
)

// Heap tracks every byte obtained from its grower as exactly one block, free or allocated,
// and owns the free list linking the free ones. Payload addresses are handed out and
// accepted as uintptr; the allocator layer converts to and from unsafe.Pointer.
type Heap struct {
	grower grower.Grower

	head  uintptr // lowest-address free block, 0 when none
	spans []span

	allocCount int
	allocBytes int
	freeCount  int
	freeBytes  int
	spanBytes  int
}

// New returns an empty Heap over g. No memory is requested until the first Acquire.
func New(g grower.Grower) *Heap {
	return &Heap{grower: g}
}

// augmentSize rounds a requested payload size up to the heap's block granularity: at least
// MinPayload, and a multiple of HeaderSize so the free tag bit stays clear.
func augmentSize(size int) int {
	if size < MinPayload {
		size = MinPayload
	}
	return memutils.AlignUp(size, MinAlign)
}

// Acquire finds or creates an allocated block whose payload is at least size bytes and
// aligned to align, growing the heap when no existing free block fits. The error from a
// failed growth is returned as-is; the allocator layer translates it to OutOfMemory.
func (h *Heap) Acquire(size int, align uint) (uintptr, error) {
	if size < 0 {
		return 0, errors.Errorf("invalid allocation size %d", size)
	}
	if align < MinAlign {
		align = MinAlign
	}
	size = augmentSize(size)

	payload, ok := h.placeInFreeBlock(size, align)
	if !ok {
		if err := h.requestGrowth(size, align); err != nil {
			return 0, err
		}
		payload, ok = h.placeInFreeBlock(size, align)
		if !ok {
			// requestGrowth sizes the region for worst-case alignment slack, so a
			// second miss means the bookkeeping is corrupt.
			panic("no fit found after successful heap growth")
		}
	}

	h.allocCount++
	h.allocBytes += payloadSize(blockOf(payload))
	return payload, nil
}

// Release returns an allocated payload to the free list, eagerly merging it with any
// physically adjacent free neighbor on either side.
func (h *Heap) Release(payload uintptr) {
	block := blockOf(payload)

	h.allocCount--
	h.allocBytes -= payloadSize(block)

	prev := h.findInsertPosition(block)
	h.insertFreeBlock(prev, block)
	h.coalesce(block)
}

// TryResizeInPlace resizes the allocation at payload without moving it. Shrinks always
// succeed, splitting off and releasing the tail when it is large enough to stand alone.
// Grows succeed only when enough physically following free space exists within the span;
// a failed grow may leave consumed free neighbors attached to the block, which the
// relocation fallback returns to the free list wholesale when it releases the block.
func (h *Heap) TryResizeInPlace(payload uintptr, newSize int) bool {
	block := blockOf(payload)
	newSize = augmentSize(newSize)

	oldSize := payloadSize(block)
	current := oldSize

	if current < newSize {
		limit := h.spanLimit(block)
		for current < newSize {
			next := blockEnd(block)
			if next >= limit || !isFree(next) {
				h.allocBytes += current - oldSize
				return false
			}
			nextSize := payloadSize(next)
			h.removeFreeBlock(next)
			current += HeaderSize + nextSize
			writeHeader(block, current, false)
		}
	}

	if current-newSize >= minBlockSize {
		tailPayload := current - newSize - HeaderSize
		writeHeader(block, newSize, false)
		current = newSize

		tail := blockEnd(block)
		writeHeader(tail, tailPayload, false)
		prev := h.findInsertPosition(tail)
		h.insertFreeBlock(prev, tail)
		h.coalesce(tail)
	}

	h.allocBytes += current - oldSize
	return true
}

// placeInFreeBlock runs the first-fit search: the lowest-addressed free block that can
// hold an aligned payload of the requested size wins.
func (h *Heap) placeInFreeBlock(size int, align uint) (uintptr, bool) {
	for block := h.head; block != 0; block = nodeOf(block).next {
		payload, ok := placementFor(block, size, align)
		if !ok {
			continue
		}

		prev := nodeOf(block).prev
		end := blockEnd(block)
		h.removeFreeBlock(block)
		return h.placeRaw(prev, block, end, payload, size), true
	}
	return 0, false
}

// placementFor chooses an aligned payload address inside the free block. The gap between
// the block start and the placed allocation's header must be zero or big enough to carve
// a whole free padding block, so candidates are advanced by align until one fits or the
// payload overruns the block.
func placementFor(block uintptr, size int, align uint) (uintptr, bool) {
	end := blockEnd(block)
	payload := memutils.AlignUpPtr(block+uintptr(HeaderSize), uintptr(align))

	for {
		if payload+uintptr(size) > end {
			return 0, false
		}
		gap := int(payload-block) - HeaderSize
		if gap == 0 || gap >= minBlockSize {
			return payload, true
		}
		payload += uintptr(align)
	}
}

// placeRaw formats the [block, end) range around an allocation at payload: an optional
// free padding block on the left, the allocated block itself, and a free remainder on the
// right when it meets the minimum block size. A too-small remainder is absorbed into the
// allocation so the span stays exactly tiled. prev is the address-order predecessor in
// the free list. The payload bytes themselves are never touched.
func (h *Heap) placeRaw(prev, block, end, payload uintptr, size int) uintptr {
	allocBlock := blockOf(payload)

	if allocBlock != block {
		padSize := int(allocBlock-block) - HeaderSize
		writeHeader(block, padSize, false)
		h.insertFreeBlock(prev, block)
		prev = block
	}

	allocSize := size
	remainder := int(end - (payload + uintptr(size)))
	if remainder >= minBlockSize {
		tail := payload + uintptr(size)
		writeHeader(tail, remainder-HeaderSize, false)
		h.insertFreeBlock(prev, tail)
	} else {
		allocSize += remainder
	}

	writeHeader(allocBlock, allocSize, false)
	return payload
}

// requestGrowth asks the grower for enough address space to satisfy the allocation that
// just missed, including worst-case alignment slack, and formats the result as one free
// block. The slack covers edge trimming of a misaligned region plus a whole padding block
// in front of the placed allocation.
func (h *Heap) requestGrowth(size int, align uint) error {
	need := size + HeaderSize + int(align) + 2*minBlockSize
	region, err := h.grower.Grow(need)
	if err != nil {
		return errors.Wrap(err, "heap growth failed")
	}
	h.addRegion(region)
	return nil
}

// addRegion trims a grower region to header alignment and inserts it as a single free
// block. A region contiguous with an existing span extends that span, and the new block
// coalesces with the span's trailing free block when there is one.
func (h *Heap) addRegion(region grower.Region) {
	base := memutils.AlignUpPtr(region.Base, uintptr(MinAlign))
	limit := memutils.AlignDownPtr(region.Base+uintptr(region.Size), uintptr(MinAlign))
	if int(limit-base) < minBlockSize {
		return
	}

	h.addSpan(base, limit)
	h.spanBytes += int(limit - base)

	writeHeader(base, int(limit-base)-HeaderSize, false)
	prev := h.findInsertPosition(base)
	h.insertFreeBlock(prev, base)
	h.coalesce(base)
}
