package common

import "cmp"

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// AlignUp rounds n up to the next multiple of align. align must be a power of two.
//
// Parameters:
//   - n: the value to round
//   - align: the alignment, a power of two
//
// Returns:
//   - uint64: the smallest multiple of align that is >= n
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
