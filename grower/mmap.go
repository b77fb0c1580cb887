package grower

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MmapGrower implements the mapping growth strategy: every Grow call requests a fresh,
// independent anonymous mapping. Regions are not necessarily contiguous with earlier ones,
// so the heap tracks each result as its own span.
type MmapGrower struct {
	chunkSize int
	mappings  [][]byte
}

// NewMmapGrower returns a MmapGrower whose mappings are at least chunkSize bytes, rounded
// up to the page size.
func NewMmapGrower(chunkSize int) *MmapGrower {
	return &MmapGrower{chunkSize: roundToPages(chunkSize)}
}

func (g *MmapGrower) Grow(minBytes int) (Region, error) {
	if minBytes <= 0 {
		return Region{}, errors.Errorf("invalid growth request of %d bytes", minBytes)
	}

	amount := roundToPages(minBytes)
	if amount < g.chunkSize {
		amount = g.chunkSize
	}

	buf, err := unix.Mmap(-1, 0, amount,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return Region{}, errors.Wrapf(err, "mapping %d bytes", amount)
	}

	// Mappings are never unmapped: the heap does not return memory to the OS. The slice
	// headers are retained so the regions stay visible to tooling.
	g.mappings = append(g.mappings, buf)
	return Region{Base: uintptr(unsafe.Pointer(&buf[0])), Size: amount}, nil
}
