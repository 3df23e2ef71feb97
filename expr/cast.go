package expr

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kvsql/engine/value"
)

// evalCast implements the cast matrix: every ordered pair of scalar kinds
// that has a defined conversion. An operand already NULL stays NULL;
// everything else either produces a typed value or an error tagged with
// the kind of failure (format, overflow, length_overflow, unsupported).
func (e Evaluator) evalCast(ctx *Context, c Cast, vars Vars) value.Any {
	v := e.Eval(ctx, c.Operand, vars)
	if v.IsError() {
		return v
	}
	if v.IsEmpty() {
		return value.Empty()
	}

	switch {
	case c.Target.Kind == value.KindBoolean:
		return castToBool(v)
	case c.Target.Kind.IsInteger():
		return castToInt(c.Target.Kind, v)
	case c.Target.Kind.IsFloat():
		return castToFloat(c.Target.Kind, v)
	case c.Target.Kind == value.KindDecimal:
		return castToDecimal(v)
	case c.Target.Kind == value.KindCharacter:
		return castToCharacter(c.Target, v, c.Lenient)
	case c.Target.Kind == value.KindOctet:
		return castToOctet(v)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unsupported cast target"))
	}
}

func castToBool(v value.Any) value.Any {
	switch {
	case v.Kind() == value.KindBoolean:
		return v
	case v.Kind() == value.KindCharacter:
		b, _ := v.AsBytes()
		s := strings.ToLower(strings.TrimSpace(string(b)))
		switch {
		case s != "" && strings.HasPrefix("true", s):
			return value.NewBool(true)
		case s != "" && strings.HasPrefix("false", s):
			return value.NewBool(false)
		default:
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid boolean literal"))
		}
	case v.Kind().IsInteger():
		i, _ := v.AsInt()
		return value.NewBool(i != 0)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to boolean"))
	}
}

func castToInt(kind value.Kind, v value.Any) value.Any {
	var i64 int64
	switch {
	case v.Kind().IsInteger():
		i64, _ = v.AsInt()
	case v.Kind().IsFloat():
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) || f < math.MinInt64 || f > math.MaxInt64 {
			return value.NewError(value.NewEvalError(value.ErrKindOverflow, "float out of integer range"))
		}
		i64 = int64(f)
	case v.Kind() == value.KindDecimal:
		d, _ := v.AsDecimal()
		iv, overflow := decimalToInt64(d)
		if overflow {
			return value.NewError(value.NewEvalError(value.ErrKindOverflow, "decimal out of integer range"))
		}
		i64 = iv
	case v.Kind() == value.KindBoolean:
		b, _ := v.AsBool()
		if b {
			i64 = 1
		}
	case v.Kind() == value.KindCharacter:
		b, _ := v.AsBytes()
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
		if err != nil {
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid integer literal"))
		}
		i64 = parsed
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to integer"))
	}
	if !value.InRange(kind, i64) {
		return value.NewError(value.NewEvalError(value.ErrKindOverflow, "integer out of range for target width"))
	}
	return value.NewInt(kind, i64)
}

func castToFloat(kind value.Kind, v value.Any) value.Any {
	var f float64
	switch {
	case v.Kind().IsFloat():
		f, _ = v.AsFloat()
	case v.Kind().IsInteger():
		i, _ := v.AsInt()
		f = float64(i)
	case v.Kind() == value.KindDecimal:
		d, _ := v.AsDecimal()
		rat := d.AsRat()
		ff, _ := new(big.Float).SetRat(rat).Float64()
		f = ff
	case v.Kind() == value.KindCharacter:
		b, _ := v.AsBytes()
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid float literal"))
		}
		f = parsed
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to float"))
	}
	if kind == value.KindFloat4 {
		f32 := float32(f)
		if math.IsInf(float64(f32), 0) && !math.IsInf(f, 0) {
			return value.NewError(value.NewEvalError(value.ErrKindOverflow, "float8 out of float4 range"))
		}
		return value.NewFloat(value.KindFloat4, float64(f32))
	}
	return value.NewFloat(value.KindFloat8, f)
}

func castToDecimal(v value.Any) value.Any {
	switch {
	case v.Kind() == value.KindDecimal:
		return v
	case v.Kind().IsInteger():
		i, _ := v.AsInt()
		neg := i < 0
		if neg {
			i = -i
		}
		d, err := value.NewDecimalFromParts(neg, big.NewInt(i), 0)
		if err != nil {
			return value.NewError(value.NewEvalError(value.ErrKindOverflow, ""))
		}
		return value.NewDecimal(d)
	case v.Kind().IsFloat():
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "cannot cast NaN/infinity to decimal"))
		}
		return parseDecimalString(strconv.FormatFloat(f, 'f', -1, 64))
	case v.Kind() == value.KindCharacter:
		b, _ := v.AsBytes()
		return parseDecimalString(strings.TrimSpace(string(b)))
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to decimal"))
	}
}

// parseDecimalString parses an optionally-signed fixed or scientific
// notation decimal literal into a value.Decimal, without going through a
// binary float.
func parseDecimalString(s string) value.Any {
	if s == "" {
		return value.NewError(value.NewEvalError(value.ErrKindFormat, "empty decimal literal"))
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	mantissa := s
	exp := int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa = s[:i]
		e, err := strconv.ParseInt(s[i+1:], 10, 32)
		if err != nil {
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid decimal exponent"))
		}
		exp = e
	}
	intPart, fracPart := mantissa, ""
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, fracPart = mantissa[:i], mantissa[i+1:]
	}
	digits := intPart + fracPart
	if digits == "" {
		return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid decimal literal"))
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid decimal literal"))
		}
	}
	coeff, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return value.NewError(value.NewEvalError(value.ErrKindFormat, "invalid decimal literal"))
	}
	exponent := exp - int64(len(fracPart))
	if exponent < math.MinInt32 || exponent > math.MaxInt32 {
		return value.NewError(value.NewEvalError(value.ErrKindOverflow, "decimal exponent out of range"))
	}
	d, err := value.NewDecimalFromParts(neg, coeff, int32(exponent))
	if err != nil {
		return value.NewError(value.NewEvalError(value.ErrKindOverflow, "decimal coefficient too large"))
	}
	return value.NewDecimal(d)
}

// decimalToInt64 truncates the fractional part (toward zero) and reports
// overflow if the integral part doesn't fit in an int64.
func decimalToInt64(d value.Decimal) (v int64, overflow bool) {
	var coeff *big.Int
	if d.Exponent < 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-d.Exponent)), nil)
		coeff = new(big.Int).Quo(&d.Coefficient, scale)
	} else {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Exponent)), nil)
		coeff = new(big.Int).Mul(&d.Coefficient, scale)
	}
	if !coeff.IsInt64() {
		return 0, true
	}
	v = coeff.Int64()
	if d.Negative {
		v = -v
	}
	return v, false
}

func castToOctet(v value.Any) value.Any {
	if v.Kind() != value.KindOctet {
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to octet"))
	}
	return v
}

// castToCharacter renders any scalar as text, then applies truncate_or_pad
// against a fixed-length declared target: values longer than the declared
// length are truncated (an error unless Lenient is set), and values
// shorter than a non-varying declared length are padded with spaces.
func castToCharacter(target value.FieldType, v value.Any, lenient bool) value.Any {
	var s string
	switch {
	case v.Kind() == value.KindCharacter:
		b, _ := v.AsBytes()
		s = string(b)
	case v.Kind() == value.KindBoolean:
		b, _ := v.AsBool()
		if b {
			s = "true"
		} else {
			s = "false"
		}
	case v.Kind().IsInteger():
		i, _ := v.AsInt()
		s = strconv.FormatInt(i, 10)
	case v.Kind().IsFloat():
		f, _ := v.AsFloat()
		bits := 64
		if v.Kind() == value.KindFloat4 {
			bits = 32
		}
		s = strconv.FormatFloat(f, 'g', -1, bits)
	case v.Kind() == value.KindDecimal:
		d, _ := v.AsDecimal()
		s = d.String()
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "cannot cast to character"))
	}

	if target.Details.Length <= 0 {
		return value.NewText([]byte(s))
	}
	n := utf8.RuneCountInString(s)
	limit := int(target.Details.Length)
	switch {
	case n > limit:
		if !lenient {
			return value.NewError(value.NewEvalError(value.ErrKindLengthOverflow, "value too long for character column"))
		}
		runes := []rune(s)
		return value.NewText([]byte(string(runes[:limit])))
	case n < limit && !target.Details.Varying:
		return value.NewText([]byte(s + strings.Repeat(" ", limit-n)))
	default:
		return value.NewText([]byte(s))
	}
}
