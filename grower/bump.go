package grower

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// BumpGrower implements the incremental growth strategy: it reserves a single anonymous
// mapping up front and advances a monotonically increasing boundary through it. Successive
// regions are contiguous, so the heap sees one unbroken span and blocks from separate
// growth calls can coalesce.
type BumpGrower struct {
	reserved  []byte
	boundary  int
	chunkSize int
}

// NewBumpGrower reserves capacity bytes of address space. chunkSize is the smallest
// extension handed out by a single Grow call; both values are rounded up to the page size.
func NewBumpGrower(capacity, chunkSize int) (*BumpGrower, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("invalid reservation capacity %d", capacity)
	}
	capacity = roundToPages(capacity)

	// MAP_NORESERVE keeps the reservation as pure address space: pages are only
	// committed as the boundary advances over them.
	buf, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_NORESERVE)
	if err != nil {
		return nil, errors.Wrapf(err, "reserving %d bytes of address space", capacity)
	}

	return &BumpGrower{
		reserved:  buf,
		chunkSize: roundToPages(chunkSize),
	}, nil
}

func (g *BumpGrower) Grow(minBytes int) (Region, error) {
	if minBytes <= 0 {
		return Region{}, errors.Errorf("invalid growth request of %d bytes", minBytes)
	}

	amount := roundToPages(minBytes)
	if amount < g.chunkSize {
		amount = g.chunkSize
	}
	if g.boundary+amount > len(g.reserved) {
		// Hand out the remainder of the reservation if it still covers the request.
		amount = len(g.reserved) - g.boundary
		if amount < minBytes {
			return Region{}, errors.Errorf(
				"reservation exhausted: %d bytes requested, %d remaining", minBytes, amount)
		}
	}

	base := uintptr(unsafe.Pointer(&g.reserved[0])) + uintptr(g.boundary)
	g.boundary += amount
	return Region{Base: base, Size: amount}, nil
}
