// Package bitsize maps block sizes to power-of-two size classes.
package bitsize

import "math/bits"

// MaxBits is the largest value returned by BitsNeeded.
const MaxBits = 31

// BitsNeeded returns the least i in [1, MaxBits] such that n <= 2^i - 1.
//
// Values n <= 1 yield 1, values that need more than MaxBits bits yield MaxBits.
func BitsNeeded(n int) int {
	if n <= 1 {
		return 1
	}

	b := bits.Len64(uint64(n))
	if b > MaxBits {
		return MaxBits
	}

	return b
}

// ClassIndex returns the size class of a block of the given size.
func ClassIndex(size int) int {
	return BitsNeeded(size) - 1
}
