package expr

import (
	"github.com/kvsql/engine/value"
)

// Evaluator interprets a Node tree into an Any, per the §4.1 contract:
// the result is always exactly one of a typed value, empty (NULL), or an
// error tagged with a kind — Eval has no Go `error` return at all; a node
// or operator it does not recognise also yields an error-tagged Any (kind
// unsupported).
type Evaluator struct{}

func (e Evaluator) Eval(ctx *Context, n Node, vars Vars) value.Any {
	switch t := n.(type) {
	case Literal:
		return t.Value
	case ColumnRef:
		return vars.Column(t.Index)
	case Binary:
		return e.evalBinary(ctx, t, vars)
	case Unary:
		return e.evalUnary(ctx, t, vars)
	case Concat:
		return e.evalConcat(ctx, t, vars)
	case Like:
		return e.evalLike(ctx, t, vars)
	case Cast:
		return e.evalCast(ctx, t, vars)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown expression node"))
	}
}

func (e Evaluator) evalUnary(ctx *Context, u Unary, vars Vars) value.Any {
	if u.Op == IsNull {
		v := e.Eval(ctx, u.Operand, vars)
		return value.NewBool(v.IsEmpty())
	}

	v := e.Eval(ctx, u.Operand, vars)
	if v.IsError() {
		return v
	}
	switch u.Op {
	case Not:
		if v.IsEmpty() {
			return value.Empty()
		}
		b, _ := v.AsBool()
		return value.NewBool(!b)
	case Length:
		if v.IsEmpty() {
			return value.Empty()
		}
		b, ok := v.AsBytes()
		if !ok {
			return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "LENGTH requires a character or octet operand"))
		}
		if v.Kind() == value.KindCharacter {
			n, err := runeCount(b)
			if err != nil {
				return value.Empty()
			}
			return value.NewInt(value.KindInt8, int64(n))
		}
		return value.NewInt(value.KindInt8, int64(len(b)))
	case Plus, Neg:
		if v.IsEmpty() {
			return value.Empty()
		}
		return e.evalUnaryArith(u.Op, v)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown unary operator"))
	}
}

func (e Evaluator) evalUnaryArith(op UnOp, v value.Any) value.Any {
	switch {
	case v.Kind().IsInteger():
		i, _ := v.AsInt()
		if op == Neg {
			i = -i
			if !value.InRange(v.Kind(), i) {
				return value.NewError(value.NewEvalError(value.ErrKindOverflow, ""))
			}
		}
		return value.NewInt(v.Kind(), i)
	case v.Kind().IsFloat():
		f, _ := v.AsFloat()
		if op == Neg {
			f = -f
		}
		return value.NewFloat(v.Kind(), f)
	case v.Kind() == value.KindDecimal:
		d, _ := v.AsDecimal()
		if op == Neg && !d.IsZero() {
			d.Negative = !d.Negative
		}
		return value.NewDecimal(d)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unary +/- requires a numeric operand"))
	}
}

func (e Evaluator) evalConcat(ctx *Context, c Concat, vars Vars) value.Any {
	l := e.Eval(ctx, c.Left, vars)
	r := e.Eval(ctx, c.Right, vars)
	if l.IsError() {
		return l
	}
	if r.IsError() {
		return r
	}
	if l.IsEmpty() || r.IsEmpty() {
		return value.Empty()
	}
	lb, ok1 := l.AsBytes()
	rb, ok2 := r.AsBytes()
	if !ok1 || !ok2 || l.Kind() != r.Kind() {
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "|| requires matching character or binary operands"))
	}
	out := ctx.Arena.Allocate(len(lb) + len(rb))
	copy(out, lb)
	copy(out[len(lb):], rb)
	if l.Kind() == value.KindCharacter {
		return value.NewText(out)
	}
	return value.NewBinary(out)
}

func (e Evaluator) evalBinary(ctx *Context, b Binary, vars Vars) value.Any {
	switch b.Op {
	case And:
		return e.evalAnd(ctx, b, vars)
	case Or:
		return e.evalOr(ctx, b, vars)
	}

	l := e.Eval(ctx, b.Left, vars)
	if l.IsError() {
		return l
	}
	r := e.Eval(ctx, b.Right, vars)
	if r.IsError() {
		return r
	}

	switch b.Op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return e.evalComparison(b.Op, l, r)
	default:
		if l.IsEmpty() || r.IsEmpty() {
			return value.Empty()
		}
		return e.evalArith(ctx, b.Op, l, r)
	}
}

// evalAnd/evalOr implement the three-valued truth tables of §4.1 with
// short-circuit evaluation.
func (e Evaluator) evalAnd(ctx *Context, b Binary, vars Vars) value.Any {
	l := e.Eval(ctx, b.Left, vars)
	if l.IsError() {
		return l
	}
	if bv, ok := l.AsBool(); ok && !bv {
		return value.NewBool(false) // FALSE AND x = FALSE regardless of x
	}
	r := e.Eval(ctx, b.Right, vars)
	if r.IsError() {
		return r
	}
	if bv, ok := r.AsBool(); ok && !bv {
		return value.NewBool(false)
	}
	if l.IsEmpty() || r.IsEmpty() {
		return value.Empty()
	}
	lb, _ := l.AsBool()
	rb, _ := r.AsBool()
	return value.NewBool(lb && rb)
}

func (e Evaluator) evalOr(ctx *Context, b Binary, vars Vars) value.Any {
	l := e.Eval(ctx, b.Left, vars)
	if l.IsError() {
		return l
	}
	if bv, ok := l.AsBool(); ok && bv {
		return value.NewBool(true) // TRUE OR x = TRUE regardless of x
	}
	r := e.Eval(ctx, b.Right, vars)
	if r.IsError() {
		return r
	}
	if bv, ok := r.AsBool(); ok && bv {
		return value.NewBool(true)
	}
	if l.IsEmpty() || r.IsEmpty() {
		return value.Empty()
	}
	lb, _ := l.AsBool()
	rb, _ := r.AsBool()
	return value.NewBool(lb || rb)
}

func (e Evaluator) evalComparison(op BinOp, l, r value.Any) value.Any {
	if l.IsEmpty() || r.IsEmpty() {
		return value.Empty()
	}
	cmp, ok := Compare(l, r)
	if !ok {
		// Unordered (NaN): every comparison except <> is false/NULL per
		// IEEE semantics; the engine treats it as NULL-like UNKNOWN, but
		// since SQL has no UNKNOWN literal distinct from NULL the
		// evaluator returns false for ordering ops and true for <>.
		if op == Ne {
			return value.NewBool(true)
		}
		return value.NewBool(false)
	}
	switch op {
	case Eq:
		return value.NewBool(cmp == 0)
	case Ne:
		return value.NewBool(cmp != 0)
	case Lt:
		return value.NewBool(cmp < 0)
	case Le:
		return value.NewBool(cmp <= 0)
	case Gt:
		return value.NewBool(cmp > 0)
	case Ge:
		return value.NewBool(cmp >= 0)
	default:
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "unknown comparison operator"))
	}
}
