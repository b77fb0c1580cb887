package grower

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// ArenaGrower bump-allocates regions out of a caller-supplied buffer. It is byte-granular
// rather than page-granular, which makes exhaustion behavior exact and repeatable; tests
// and embedders with a fixed memory budget use it in place of the mapping strategies.
//
// The caller must keep the buffer alive for the lifetime of the heap it backs.
type ArenaGrower struct {
	buf       []byte
	boundary  int
	chunkSize int
}

// NewArenaGrower returns an ArenaGrower over buf. chunkSize is the smallest extension
// handed out by a single Grow call; pass 0 to grow by exactly the requested amount.
func NewArenaGrower(buf []byte, chunkSize int) *ArenaGrower {
	return &ArenaGrower{buf: buf, chunkSize: chunkSize}
}

func (g *ArenaGrower) Grow(minBytes int) (Region, error) {
	if minBytes <= 0 {
		return Region{}, errors.Errorf("invalid growth request of %d bytes", minBytes)
	}

	amount := minBytes
	if amount < g.chunkSize {
		amount = g.chunkSize
	}
	if g.boundary+amount > len(g.buf) {
		amount = len(g.buf) - g.boundary
		if amount < minBytes {
			return Region{}, errors.Errorf(
				"arena exhausted: %d bytes requested, %d remaining", minBytes, amount)
		}
	}

	base := uintptr(unsafe.Pointer(&g.buf[0])) + uintptr(g.boundary)
	g.boundary += amount
	return Region{Base: base, Size: amount}, nil
}
