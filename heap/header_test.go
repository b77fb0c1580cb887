package heap

import (
	"testing"
	"unsafe"

	"github.com/heapwerk/gmalloc/memutils"
	"github.com/stretchr/testify/require"
)

func alignedBlock(t *testing.T, buf []byte) uintptr {
	t.Helper()
	block := memutils.AlignUpPtr(uintptr(unsafe.Pointer(&buf[0])), uintptr(MinAlign))
	require.LessOrEqual(t, int(block-uintptr(unsafe.Pointer(&buf[0]))), len(buf)/2)
	return block
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	block := alignedBlock(t, buf)

	writeHeader(block, 64, false)
	require.Equal(t, 64, payloadSize(block))
	require.False(t, isFree(block))

	writeHeader(block, 64, true)
	require.Equal(t, 64, payloadSize(block))
	require.True(t, isFree(block))

	markTaken(block)
	require.False(t, isFree(block))
	require.Equal(t, 64, payloadSize(block))

	markFree(block)
	require.True(t, isFree(block))
	require.Equal(t, 64, payloadSize(block))
}

func TestBlockGeometry(t *testing.T) {
	buf := make([]byte, 256)
	block := alignedBlock(t, buf)

	writeHeader(block, 40, false)
	payload := payloadOf(block)
	require.Equal(t, block+uintptr(HeaderSize), payload)
	require.Equal(t, block, blockOf(payload))
	require.Equal(t, payload+40, blockEnd(block))
}

func TestAugmentSize(t *testing.T) {
	require.Equal(t, MinPayload, augmentSize(0))
	require.Equal(t, MinPayload, augmentSize(1))
	require.Equal(t, MinPayload, augmentSize(MinPayload))
	require.Equal(t, MinPayload+HeaderSize, augmentSize(MinPayload+1))
	require.Equal(t, memutils.AlignUp(57, MinAlign), augmentSize(57))
}

func TestPlacementFor(t *testing.T) {
	buf := make([]byte, 512)
	block := alignedBlock(t, buf)
	writeHeader(block, 128, true)

	// An unaligned request starts right after the header.
	payload, ok := placementFor(block, 32, MinAlign)
	require.True(t, ok)
	require.Equal(t, payloadOf(block), payload)

	// A stricter alignment either lands on the natural payload start or leaves room for
	// a whole padding block before the allocation's header.
	payload, ok = placementFor(block, 32, 64)
	require.True(t, ok)
	require.Zero(t, payload%64)
	gap := int(payload-block) - HeaderSize
	require.True(t, gap == 0 || gap >= minBlockSize)

	// Requests that cannot fit fail rather than overrun the block.
	_, ok = placementFor(block, 256, MinAlign)
	require.False(t, ok)
}
