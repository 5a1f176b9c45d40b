package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// SatAddU16 adds n to a 16-bit counter, sticking at 0xFFFF instead of
// wrapping.
func SatAddU16(c uint16, n uint32) uint16 {
	// 64-bit sum: uint32(c)+n itself wraps for n near 1<<32.
	sum := uint64(c) + uint64(n)
	if sum > 0xFFFF {
		return 0xFFFF
	}
	return uint16(sum)
}
