package heap

import "github.com/cockroachdb/errors"

// Validate performs deep consistency checks across the span table, the physical block
// tiling, and the free list. It walks the entire heap and is intended for tests and
// debug_mem_utils builds; when the implementation is functioning correctly it cannot fail.
func (h *Heap) Validate() error {
	if err := h.validateSpans(); err != nil {
		return err
	}

	listCount, listBytes, err := h.validateFreeList()
	if err != nil {
		return err
	}

	var walkAllocCount, walkAllocBytes, walkFreeCount, walkFreeBytes, walkSpanBytes int
	for _, s := range h.spans {
		prevFree := false
		block := s.base
		for block < s.limit {
			size := payloadSize(block)
			if size < MinPayload {
				return errors.Errorf("block at %#x has payload size %d, below the minimum %d", block, size, MinPayload)
			}
			if isFree(block) {
				if prevFree {
					return errors.Errorf("adjacent free blocks at %#x survived coalescing", block)
				}
				prevFree = true
				walkFreeCount++
				walkFreeBytes += size
			} else {
				prevFree = false
				walkAllocCount++
				walkAllocBytes += size
			}
			block = blockEnd(block)
		}
		if block != s.limit {
			return errors.Errorf("span [%#x, %#x) is not exactly tiled: last block ends at %#x", s.base, s.limit, block)
		}
		walkSpanBytes += int(s.limit - s.base)
	}

	if walkSpanBytes != h.spanBytes {
		return errors.Errorf("span table covers %d bytes but the recorded total is %d", walkSpanBytes, h.spanBytes)
	}
	if walkAllocCount != h.allocCount {
		return errors.Errorf("walk found %d allocations but the recorded count is %d", walkAllocCount, h.allocCount)
	}
	if walkAllocBytes != h.allocBytes {
		return errors.Errorf("walk found %d allocated bytes but the recorded total is %d", walkAllocBytes, h.allocBytes)
	}
	if walkFreeCount != listCount {
		return errors.Errorf("walk found %d free blocks but the free list links %d", walkFreeCount, listCount)
	}
	if walkFreeBytes != listBytes {
		return errors.Errorf("walk found %d free bytes but the free list carries %d", walkFreeBytes, listBytes)
	}

	return nil
}

func (h *Heap) validateSpans() error {
	for i, s := range h.spans {
		if s.base >= s.limit {
			return errors.Errorf("span %d has non-positive extent [%#x, %#x)", i, s.base, s.limit)
		}
		if i > 0 && h.spans[i-1].limit >= s.base {
			return errors.Errorf("span %d is not strictly after its predecessor", i)
		}
	}
	return nil
}

func (h *Heap) validateFreeList() (count, bytes int, err error) {
	var prev uintptr
	for block := h.head; block != 0; block = nodeOf(block).next {
		if !isFree(block) {
			return 0, 0, errors.Errorf("block at %#x is in the free list but is not tagged free", block)
		}
		if nodeOf(block).prev != prev {
			return 0, 0, errors.Errorf("block at %#x has a broken back reference", block)
		}
		if prev != 0 && block <= prev {
			return 0, 0, errors.Errorf("free list is not in ascending address order at %#x", block)
		}
		count++
		bytes += payloadSize(block)
		prev = block
	}

	if count != h.freeCount {
		return 0, 0, errors.Errorf("free list links %d blocks but the recorded count is %d", count, h.freeCount)
	}
	if bytes != h.freeBytes {
		return 0, 0, errors.Errorf("free list carries %d bytes but the recorded total is %d", bytes, h.freeBytes)
	}
	return count, bytes, nil
}
