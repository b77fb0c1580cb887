package grower_test

import "unsafe"

func byteAt(addr uintptr) *byte {
	return (*byte)(unsafe.Pointer(addr))
}
