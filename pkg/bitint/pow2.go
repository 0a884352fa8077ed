// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-two helpers for buffer and FFT sizing.
All operations are O(1), allocation-free and safe to call anywhere,
including real-time code.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Exact powers of 2 are returned unchanged; non-positive input yields 1.
//
// The size-1 subtraction is what preserves exact powers of 2: for 8,
// bits.Len64(7) == 3 and 1<<3 == 8, whereas bits.Len64(8) == 4 would
// incorrectly double the value.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len64(uint64(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
