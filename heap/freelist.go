package heap

// The free list is doubly linked and kept in ascending address order. Address order makes
// the coalescing adjacency checks plain pointer comparisons: a block's list neighbors are
// the only candidates for physical neighbors that are free.

// insertFreeBlock tags block free and links it into the list immediately after prev, or at
// the head when prev is 0. The caller is responsible for prev being the address-order
// predecessor.
func (h *Heap) insertFreeBlock(prev, block uintptr) {
	markFree(block)

	node := nodeOf(block)
	if prev == 0 {
		node.next = h.head
		node.prev = 0
		if h.head != 0 {
			nodeOf(h.head).prev = block
		}
		h.head = block
	} else {
		prevNode := nodeOf(prev)
		node.next = prevNode.next
		node.prev = prev
		if prevNode.next != 0 {
			nodeOf(prevNode.next).prev = block
		}
		prevNode.next = block
	}

	h.freeCount++
	h.freeBytes += payloadSize(block)
}

// removeFreeBlock unlinks block from the list and tags it taken.
func (h *Heap) removeFreeBlock(block uintptr) {
	node := nodeOf(block)
	if node.prev == 0 {
		h.head = node.next
	} else {
		nodeOf(node.prev).next = node.next
	}
	if node.next != 0 {
		nodeOf(node.next).prev = node.prev
	}

	markTaken(block)
	h.freeCount--
	h.freeBytes -= payloadSize(block)
}

// findInsertPosition returns the address-order predecessor for block, or 0 when block
// belongs at the head.
func (h *Heap) findInsertPosition(block uintptr) uintptr {
	var prev uintptr
	for cur := h.head; cur != 0 && cur < block; cur = nodeOf(cur).next {
		prev = cur
	}
	return prev
}

// mergeWithNext absorbs the free-list successor of block, which the caller guarantees is
// physically adjacent, into block. The freed header becomes payload.
func (h *Heap) mergeWithNext(block uintptr) {
	next := nodeOf(block).next
	nextSize := payloadSize(next)
	h.removeFreeBlock(next)

	writeHeader(block, payloadSize(block)+HeaderSize+nextSize, true)
	h.freeBytes += HeaderSize + nextSize
}

// coalesce merges block, which must be free and linked, with its physically adjacent free
// neighbors. Adjacency never crosses a span boundary because contiguous regions are merged
// into a single span. Returns the address of the merged block.
func (h *Heap) coalesce(block uintptr) uintptr {
	if prev := nodeOf(block).prev; prev != 0 && blockEnd(prev) == block {
		h.mergeWithNext(prev)
		block = prev
	}
	if next := nodeOf(block).next; next != 0 && blockEnd(block) == next {
		h.mergeWithNext(block)
	}
	return block
}
