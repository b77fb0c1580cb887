package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns PowerOfTwoError (wrapped with the offending name and value) if number
// is zero or not a power of two.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the nearest multiple of alignment, which must be a power
// of two.
func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

// AlignDown rounds value down to the nearest multiple of alignment, which must be a power
// of two.
func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// AlignUpPtr rounds an address up to the nearest multiple of alignment, which must be a
// power of two.
func AlignUpPtr(value uintptr, alignment uintptr) uintptr {
	return (value + alignment - 1) &^ (alignment - 1)
}

// AlignDownPtr rounds an address down to the nearest multiple of alignment, which must be
// a power of two.
func AlignDownPtr(value uintptr, alignment uintptr) uintptr {
	return value &^ (alignment - 1)
}
