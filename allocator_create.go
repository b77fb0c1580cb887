package gmalloc

import (
	"github.com/cockroachdb/errors"
	"github.com/heapwerk/gmalloc/grower"
	"github.com/heapwerk/gmalloc/heap"
	"golang.org/x/exp/slog"
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// ExternallySynchronized disables the allocator's internal mutex. The consumer must
	// guarantee the allocator is used from only one goroutine at a time or is synchronized
	// by some other mechanism, but performance may improve because the mutex is not used.
	ExternallySynchronized bool
}

// New creates a new Allocator drawing memory from g.
//
// logger - The logger the allocator writes growth events and failures to. It is valid to
// pass nil, in which case slog.Default() is used.
//
// g - The growth strategy that provides backing address space. No memory is requested
// from it until the first allocation that cannot be placed.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, g grower.Grower, options CreateOptions) (*Allocator, error) {
	if g == nil {
		return nil, errors.New("a growth strategy is required to create an allocator")
	}
	if logger == nil {
		logger = slog.Default()
	}

	allocator := &Allocator{
		logger: logger,
		heap: heap.New(&loggingGrower{
			wrapped: g,
			logger:  logger,
		}),
	}
	allocator.mutex.UseMutex = !options.ExternallySynchronized
	allocator.live.init()

	return allocator, nil
}

// loggingGrower surfaces growth events, which otherwise happen deep inside the heap, to
// the allocator's logger.
type loggingGrower struct {
	wrapped grower.Grower
	logger  *slog.Logger
}

func (g *loggingGrower) Grow(minBytes int) (grower.Region, error) {
	region, err := g.wrapped.Grow(minBytes)
	if err != nil {
		return region, err
	}

	g.logger.Debug("heap growth",
		slog.Int("RequestedBytes", minBytes),
		slog.Int("RegionBytes", region.Size),
	)
	return region, nil
}
