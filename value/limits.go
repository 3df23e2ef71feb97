// Copyright 2017 The go-ethereum Authors
// (original work)
// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package value

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Range limits for the engine's signed integer kinds (int1/int2/int4/int8).
const (
	MaxInt1 = 1<<7 - 1
	MinInt1 = -1 << 7
	MaxInt2 = 1<<15 - 1
	MinInt2 = -1 << 15
	MaxInt4 = 1<<31 - 1
	MinInt4 = -1 << 31
	MaxInt8 = 1<<63 - 1
	MinInt8 = -1 << 63
)

// IntBounds returns the inclusive [min, max] range for an integer Kind.
func IntBounds(k Kind) (min, max int64) {
	switch k {
	case KindInt1:
		return MinInt1, MaxInt1
	case KindInt2:
		return MinInt2, MaxInt2
	case KindInt4:
		return MinInt4, MaxInt4
	case KindInt8:
		return MinInt8, MaxInt8
	default:
		return 0, 0
	}
}

// InRange reports whether v fits in the declared range of k.
func InRange(k Kind, v int64) bool {
	min, max := IntBounds(k)
	return v >= min && v <= max
}

// SafeAddInt64 returns x+y and reports whether the addition overflowed
// 64-bit signed range. Used as the final-width check before narrowing to
// the column's declared int kind.
func SafeAddInt64(x, y int64) (sum int64, overflow bool) {
	sum = x + y
	// overflow iff operands have the same sign and the result's sign differs.
	overflow = (x > 0 && y > 0 && sum < 0) || (x < 0 && y < 0 && sum > 0)
	return sum, overflow
}

// SafeSubInt64 returns x-y and reports whether the subtraction overflowed.
func SafeSubInt64(x, y int64) (diff int64, overflow bool) {
	diff = x - y
	overflow = (x >= 0 && y < 0 && diff < 0) || (x < 0 && y > 0 && diff >= 0)
	return diff, overflow
}

// SafeMulInt64 returns x*y and reports whether the multiplication overflowed.
func SafeMulInt64(x, y int64) (product int64, overflow bool) {
	if x == 0 || y == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(abs64(x)), uint64(abs64(y)))
	if hi != 0 || lo > MaxInt8 {
		return 0, true
	}
	product = int64(lo)
	if (x < 0) != (y < 0) {
		product = -product
	}
	return product, false
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// MaxOrdered returns the greater of a and b. Shared by every call site
// that needs a width-generic max over the engine's numeric kinds (decimal
// scale arithmetic in package expr, cast target-width comparisons) instead
// of one hand-rolled max per integer width.
func MaxOrdered[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// MinOrdered returns the lesser of a and b.
func MinOrdered[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
