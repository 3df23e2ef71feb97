package expr

import (
	"math/big"

	"github.com/kvsql/engine/value"
)

// maxDecimalDigits is the precision ceiling of §3.1 (p <= 38).
const maxDecimalDigits = 38

// evalDecimalArith implements decimal +, -, *, / per §4.1. Scale rules
// (an Open Question the source leaves ambiguous, per §9):
//   - add/sub:  result scale = max(scale(l), scale(r))
//   - mul:      result scale = scale(l) + scale(r)
//   - div:      result scale = max(scale(l), scale(r)), rounded half-up
// If the resulting coefficient would exceed maxDecimalDigits significant
// digits, the low-order digits are rounded away (round-half-up) and
// LostPrecision is set on ctx.
func evalDecimalArith(ctx *Context, op BinOp, l, r value.Any) value.Any {
	ld, rd := asDecimal(l), asDecimal(r)

	switch op {
	case Add, Sub:
		scale := value.MaxOrdered(-ld.Exponent, -rd.Exponent)
		la := rescaleTo(ld, -scale)
		ra := rescaleTo(rd, -scale)
		lv, rv := la.SignedCoefficient(), ra.SignedCoefficient()
		var sum big.Int
		if op == Add {
			sum.Add(lv, rv)
		} else {
			sum.Sub(lv, rv)
		}
		return finishDecimal(ctx, sum, -scale)
	case Mul:
		lv, rv := ld.SignedCoefficient(), rd.SignedCoefficient()
		var prod big.Int
		prod.Mul(lv, rv)
		exp := ld.Exponent + rd.Exponent
		return finishDecimal(ctx, prod, exp)
	case Div:
		if rd.IsZero() {
			return value.NewError(value.NewEvalError(value.ErrKindDivideByZero, ""))
		}
		scale := value.MaxOrdered(-ld.Exponent, -rd.Exponent)
		quotient := new(big.Rat).Quo(ld.AsRat(), rd.AsRat())
		// Scale the exact rational quotient up by 10^scale and round the
		// integer part half-up, recording any discarded remainder as
		// lost_precision.
		scaleFactor := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil))
		scaled := new(big.Rat).Mul(quotient, scaleFactor)
		q, rem := new(big.Int).QuoRem(scaled.Num(), scaled.Denom(), new(big.Int))
		if rem.Sign() != 0 {
			ctx.LostPrecision = true
			q = roundHalfUp(q, rem, scaled.Denom())
		}
		return finishDecimal(ctx, *q, -scale)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown decimal operator"))
	}
}

func asDecimal(a value.Any) value.Decimal {
	if d, ok := a.AsDecimal(); ok {
		return d
	}
	if i, ok := a.AsInt(); ok {
		neg := i < 0
		if neg {
			i = -i
		}
		return value.Decimal{Negative: neg, Coefficient: *big.NewInt(i)}
	}
	return value.Decimal{}
}

func rescaleTo(d value.Decimal, exp int32) value.Decimal {
	if d.Exponent == exp {
		return d
	}
	diff := d.Exponent - exp
	if diff < 0 {
		return d
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(diff)), nil)
	coeff := new(big.Int).Mul(&d.Coefficient, scale)
	return value.Decimal{Negative: d.Negative, Coefficient: *coeff, Exponent: exp}
}

func finishDecimal(ctx *Context, coeff big.Int, exponent int32) value.Any {
	negative := coeff.Sign() < 0
	if negative {
		coeff.Neg(&coeff)
	}
	// Enforce the precision ceiling by rounding away low-order digits,
	// widening the exponent to compensate.
	for len(coeff.Text(10)) > maxDecimalDigits {
		rem := new(big.Int)
		q, r := new(big.Int).QuoRem(&coeff, big.NewInt(10), rem)
		if r.Sign() != 0 {
			ctx.LostPrecision = true
		}
		coeff = *roundHalfUp(q, r, big.NewInt(10))
		exponent++
	}
	d, err := value.NewDecimalFromParts(negative, &coeff, exponent)
	if err != nil {
		return value.NewError(value.NewEvalError(value.ErrKindOverflow, ""))
	}
	return value.NewDecimal(d)
}

// roundHalfUp rounds quotient q away from zero by one if the remainder is
// at least half of denom. QuoRem truncates toward zero, so rem carries q's
// sign (or q is zero); denom is always positive.
func roundHalfUp(q, rem, denom *big.Int) *big.Int {
	twice := new(big.Int).Lsh(new(big.Int).Abs(rem), 1)
	if twice.CmpAbs(denom) < 0 {
		return q
	}
	if rem.Sign() < 0 {
		return new(big.Int).Sub(q, big.NewInt(1))
	}
	return new(big.Int).Add(q, big.NewInt(1))
}
