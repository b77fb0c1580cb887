package heap

import "unsafe"

const (
	// HeaderSize is the number of metadata bytes preceding every payload, free or
	// allocated.
	HeaderSize = int(unsafe.Sizeof(uintptr(0)))

	// MinAlign is the smallest alignment the heap produces. Payload sizes are multiples
	// of it, which keeps the header's low bit available for the free tag.
	MinAlign = uint(HeaderSize)

	// MinPayload is the smallest payload a block can carry: a free block must have room
	// for its embedded list node.
	MinPayload = int(unsafe.Sizeof(freeNode{}))

	minBlockSize = HeaderSize + MinPayload

	freeTag = uintptr(1)
)

// freeNode lives in the first bytes of a free block's payload and links the block into
// the address-ordered free list. Fields hold block addresses, 0 at either end of the list.
type freeNode struct {
	next uintptr
	prev uintptr
}

// A block header is a single machine word at the block address: the payload size with the
// low bit as the free tag. All raw header access and pointer arithmetic is confined to the
// small set of primitives below.

func headerWord(block uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(block))
}

func payloadSize(block uintptr) int {
	return int(*headerWord(block) &^ freeTag)
}

func isFree(block uintptr) bool {
	return *headerWord(block)&freeTag != 0
}

func writeHeader(block uintptr, size int, free bool) {
	word := uintptr(size)
	if free {
		word |= freeTag
	}
	*headerWord(block) = word
}

func markFree(block uintptr)  { *headerWord(block) |= freeTag }
func markTaken(block uintptr) { *headerWord(block) &^= freeTag }

func payloadOf(block uintptr) uintptr { return block + uintptr(HeaderSize) }
func blockOf(payload uintptr) uintptr { return payload - uintptr(HeaderSize) }

// blockEnd returns the first address past the block's payload, which is also the header
// address of the physically following block when one exists.
func blockEnd(block uintptr) uintptr {
	return payloadOf(block) + uintptr(payloadSize(block))
}

func nodeOf(block uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(payloadOf(block)))
}
