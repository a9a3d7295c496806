// Package safemath provides overflow-aware integer arithmetic matching the
// saturating and checked operations of the Solana runtime.
package safemath

import (
	"errors"
	"math"
)

var ErrOverflow = errors.New("ErrOverflow")

func SaturatingAddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

func SaturatingSubU64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func SaturatingMulU64(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/b != a {
		return math.MaxUint64
	}
	return product
}

func CheckedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

func CheckedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// F64ToU64 truncates toward zero and clamps to the u64 range. NaN
// converts to zero.
func F64ToU64(f float64) uint64 {
	if f != f || f <= 0 {
		return 0
	}
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}
