package heap

import (
	"golang.org/x/exp/slices"
)

// span is one contiguous range of address space obtained from the grower. Regions that
// arrive contiguous with an existing span extend it rather than adding a new one, so two
// physically adjacent blocks always share a span.
type span struct {
	base  uintptr
	limit uintptr
}

func compareSpanBase(s span, base uintptr) int {
	switch {
	case s.base < base:
		return -1
	case s.base > base:
		return 1
	}
	return 0
}

func (h *Heap) addSpan(base, limit uintptr) {
	i, _ := slices.BinarySearchFunc(h.spans, base, compareSpanBase)

	if i > 0 && h.spans[i-1].limit == base {
		h.spans[i-1].limit = limit
		if i < len(h.spans) && h.spans[i].base == limit {
			h.spans[i-1].limit = h.spans[i].limit
			h.spans = slices.Delete(h.spans, i, i+1)
		}
		return
	}
	if i < len(h.spans) && h.spans[i].base == limit {
		h.spans[i].base = base
		return
	}

	h.spans = slices.Insert(h.spans, i, span{base: base, limit: limit})
}

// spanLimit returns the limit of the span containing addr. Every managed block belongs to
// exactly one span; being handed an address outside the heap is free-list corruption.
func (h *Heap) spanLimit(addr uintptr) uintptr {
	i, found := slices.BinarySearchFunc(h.spans, addr, compareSpanBase)
	if found {
		return h.spans[i].limit
	}
	if i == 0 || addr >= h.spans[i-1].limit {
		panic("address does not belong to any managed span")
	}
	return h.spans[i-1].limit
}
