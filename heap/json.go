package heap

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// PrintDetailedMap populates a json object with the heap's totals and a full block-level
// map of every span.
func (h *Heap) PrintDetailedMap(json jwriter.ObjectState) {
	json.Name("TotalBytes").Int(h.spanBytes)
	json.Name("FreeBytes").Int(h.freeBytes)
	json.Name("Allocations").Int(h.allocCount)
	json.Name("FreeRegions").Int(h.freeCount)

	spansArr := json.Name("Spans").Array()
	for _, s := range h.spans {
		spanObj := spansArr.Object()
		spanObj.Name("Size").Int(int(s.limit - s.base))

		blocks := spanObj.Name("Blocks").Array()
		for block := s.base; block < s.limit; block = blockEnd(block) {
			b := blocks.Object()
			b.Name("Offset").Int(int(block - s.base))
			b.Name("Size").Int(payloadSize(block))
			b.Name("Free").Bool(isFree(block))
			b.End()
		}
		blocks.End()

		spanObj.End()
	}
	spansArr.End()
}
