package expr

import (
	"math"

	"github.com/kvsql/engine/value"
)

// evalArith dispatches `+ - * / %` (§4.1): integer overflow fails with
// overflow; float follows IEEE; decimal scale is derived from the
// operator and operand scales, with lost_precision set on rounding.
func (e Evaluator) evalArith(ctx *Context, op BinOp, l, r value.Any) value.Any {
	switch {
	case l.Kind().IsInteger() && r.Kind().IsInteger():
		return evalIntArith(op, l, r)
	case l.Kind().IsFloat() || r.Kind().IsFloat():
		return evalFloatArith(op, l, r)
	case l.Kind() == value.KindDecimal || r.Kind() == value.KindDecimal:
		return evalDecimalArith(ctx, op, l, r)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "arithmetic requires numeric operands"))
	}
}

func evalIntArith(op BinOp, l, r value.Any) value.Any {
	li, _ := l.AsInt()
	ri, _ := r.AsInt()
	kind := widestIntKind(l.Kind(), r.Kind())

	var result int64
	var overflow bool
	switch op {
	case Add:
		result, overflow = value.SafeAddInt64(li, ri)
	case Sub:
		result, overflow = value.SafeSubInt64(li, ri)
	case Mul:
		result, overflow = value.SafeMulInt64(li, ri)
	case Div:
		if ri == 0 {
			return value.NewError(value.NewEvalError(value.ErrKindDivideByZero, ""))
		}
		if li == value.MinInt8 && ri == -1 {
			return value.NewError(value.NewEvalError(value.ErrKindOverflow, ""))
		}
		result = li / ri
	case Mod:
		if ri == 0 {
			return value.NewError(value.NewEvalError(value.ErrKindDivideByZero, ""))
		}
		result = li % ri
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown arithmetic operator"))
	}
	if overflow || !value.InRange(kind, result) {
		return value.NewError(value.NewEvalError(value.ErrKindOverflow, ""))
	}
	return value.NewInt(kind, result)
}

func widestIntKind(a, b value.Kind) value.Kind {
	if intWidth(a) >= intWidth(b) {
		return a
	}
	return b
}

func intWidth(k value.Kind) int {
	switch k {
	case value.KindInt1:
		return 1
	case value.KindInt2:
		return 2
	case value.KindInt4:
		return 4
	case value.KindInt8:
		return 8
	default:
		return 0
	}
}

func evalFloatArith(op BinOp, l, r value.Any) value.Any {
	lf := floatOf(l)
	rf := floatOf(r)
	kind := value.KindFloat8
	if l.Kind() == value.KindFloat4 && r.Kind() != value.KindFloat8 {
		kind = value.KindFloat4
	}

	var result float64
	switch op {
	case Add:
		result = lf + rf
	case Sub:
		result = lf - rf
	case Mul:
		result = lf * rf
	case Div:
		if rf == 0 {
			return value.NewError(value.NewEvalError(value.ErrKindDivideByZero, ""))
		}
		result = lf / rf
	case Mod:
		if rf == 0 {
			return value.NewError(value.NewEvalError(value.ErrKindDivideByZero, ""))
		}
		result = math.Mod(lf, rf)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown arithmetic operator"))
	}
	return value.NewFloat(kind, result)
}

func floatOf(a value.Any) float64 {
	if f, ok := a.AsFloat(); ok {
		return f
	}
	if i, ok := a.AsInt(); ok {
		return float64(i)
	}
	return 0
}
