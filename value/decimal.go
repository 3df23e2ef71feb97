package value

import (
	"fmt"
	"math/big"
)

// maxCoefficient is 2^128 - 1, the overflow boundary for the 128-bit
// unsigned coefficient (§4.1 "String -> decimal ... overflow if the
// coefficient exceeds 2^128-1").
var maxCoefficient = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Decimal is sign * coefficient * 10^exponent, per §3.1: signed sign x
// 128-bit coefficient x 32-bit exponent, precision <= 38.
type Decimal struct {
	Negative    bool
	Coefficient big.Int // unsigned, < 2^128
	Exponent    int32
}

// NewDecimalFromParts builds a Decimal, reporting overflow if coefficient
// exceeds the 128-bit bound.
func NewDecimalFromParts(negative bool, coefficient *big.Int, exponent int32) (Decimal, error) {
	if coefficient.Sign() < 0 {
		return Decimal{}, fmt.Errorf("value: decimal coefficient must be non-negative")
	}
	if coefficient.Cmp(maxCoefficient) > 0 {
		return Decimal{}, ErrOverflow
	}
	return Decimal{Negative: negative, Coefficient: *coefficient, Exponent: exponent}, nil
}

// IsZero reports whether the decimal represents zero regardless of sign or
// exponent.
func (d Decimal) IsZero() bool {
	return d.Coefficient.Sign() == 0
}

// AdjustedExponent returns exponent + digits(coefficient) - 1, the value
// used to pick plain vs. scientific string rendering (§4.1 Decimal ->
// string).
func (d Decimal) AdjustedExponent() int32 {
	digits := len(d.Coefficient.Text(10))
	if d.IsZero() {
		digits = 1
	}
	return d.Exponent + int32(digits) - 1
}

// Cmp provides a total order over decimals (equal value compares equal
// regardless of differing coefficient/exponent representations).
func (d Decimal) Cmp(o Decimal) int {
	// Normalize both sides to a common exponent for comparison by scaling
	// the one with the larger exponent up.
	a, b := d, o
	switch {
	case a.Exponent < b.Exponent:
		b = b.rescale(a.Exponent)
	case b.Exponent < a.Exponent:
		a = a.rescale(b.Exponent)
	}
	as, bs := a.signedCoefficient(), b.signedCoefficient()
	return as.Cmp(bs)
}

func (d Decimal) signedCoefficient() *big.Int {
	return d.SignedCoefficient()
}

// SignedCoefficient returns the coefficient with its sign applied, for
// callers outside this package that need to do their own big.Int math
// (e.g. the expression evaluator's decimal arithmetic).
func (d Decimal) SignedCoefficient() *big.Int {
	v := new(big.Int).Set(&d.Coefficient)
	if d.Negative {
		v.Neg(v)
	}
	return v
}

func (d Decimal) rescale(exp int32) Decimal {
	diff := d.Exponent - exp
	if diff <= 0 {
		return d
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(diff)), nil)
	coeff := new(big.Int).Mul(&d.Coefficient, scale)
	return Decimal{Negative: d.Negative, Coefficient: *coeff, Exponent: exp}
}

// AsRat returns the exact rational value of d, for division and other
// operations that need more precision than a rescaled integer affords.
func (d Decimal) AsRat() *big.Rat {
	num := d.SignedCoefficient()
	if d.Exponent >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Exponent)), nil)
		return new(big.Rat).SetInt(new(big.Int).Mul(num, scale))
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-d.Exponent)), nil)
	return new(big.Rat).SetFrac(num, denom)
}

// String renders the canonical form described in §4.1: plain digits when
// exponent == 0 and adjusted exponent >= -6, else scientific with E+-nn.
func (d Decimal) String() string {
	adj := d.AdjustedExponent()
	sign := ""
	if d.Negative && !d.IsZero() {
		sign = "-"
	}
	if d.Exponent == 0 || adj >= -6 {
		return sign + d.plainDigits()
	}
	digits := d.Coefficient.Text(10)
	mantissa := digits[:1]
	if len(digits) > 1 {
		mantissa += "." + digits[1:]
	}
	expSign := "+"
	if adj < 0 {
		expSign = "-"
		adj = -adj
	}
	return fmt.Sprintf("%s%sE%s%02d", sign, mantissa, expSign, adj)
}

func (d Decimal) plainDigits() string {
	digits := d.Coefficient.Text(10)
	if d.Exponent >= 0 {
		if d.IsZero() {
			return "0"
		}
		zeros := make([]byte, d.Exponent)
		for i := range zeros {
			zeros[i] = '0'
		}
		return digits + string(zeros)
	}
	shift := int(-d.Exponent)
	if shift >= len(digits) {
		pad := make([]byte, shift-len(digits))
		for i := range pad {
			pad[i] = '0'
		}
		return "0." + string(pad) + digits
	}
	point := len(digits) - shift
	return digits[:point] + "." + digits[point:]
}
