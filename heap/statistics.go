package heap

import "github.com/heapwerk/gmalloc/memutils"

// AllocationCount returns the number of live allocations.
func (h *Heap) AllocationCount() int {
	return h.allocCount
}

// FreeRegionsCount returns the number of distinct free blocks. Adjacent free blocks are
// always merged, so this is also the number of maximal free runs.
func (h *Heap) FreeRegionsCount() int {
	return h.freeCount
}

// SumFreeSize returns the number of payload bytes available across all free blocks.
func (h *Heap) SumFreeSize() int {
	return h.freeBytes
}

// AddStatistics sums this heap's totals into stats from its running counters.
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount += len(h.spans)
	stats.AllocationCount += h.allocCount
	stats.BlockBytes += h.spanBytes
	stats.AllocationBytes += h.allocBytes
}

// AddDetailedStatistics walks every block in every span and sums the results into stats.
func (h *Heap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	for _, s := range h.spans {
		stats.BlockCount++
		stats.BlockBytes += int(s.limit - s.base)

		for block := s.base; block < s.limit; block = blockEnd(block) {
			if isFree(block) {
				stats.AddUnusedRange(payloadSize(block))
			} else {
				stats.AddAllocation(payloadSize(block))
			}
		}
	}
}

// VisitAllBlocks calls visit for every block in address order, free and allocated alike.
// This walks the whole heap and should be reserved for diagnostics.
func (h *Heap) VisitAllBlocks(visit func(payload uintptr, size int, free bool) error) error {
	for _, s := range h.spans {
		for block := s.base; block < s.limit; block = blockEnd(block) {
			err := visit(payloadOf(block), payloadSize(block), isFree(block))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
