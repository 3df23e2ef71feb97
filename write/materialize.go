package write

import (
	"context"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/value"
)

// SequenceManager is the only contract the write pipeline has with
// sequence durability; a real implementation lives outside this module.
type SequenceManager interface {
	Next(ctx context.Context, defID string, tx kv.Transaction) (uint64, error)
	NotifyUpdates(tx kv.Transaction)
}

// FunctionContext evaluates a bound nullary function (e.g.
// current_timestamp) by its definition id, for DefaultFunction columns.
type FunctionContext interface {
	Call(ctx context.Context, defID string) (value.Any, error)
}

// TupleElement is one column's source in a VALUES tuple or projected
// input row: either an expression to evaluate, or absent (triggering the
// column's DefaultPolicy).
type TupleElement struct {
	Present bool
	Expr    expr.Node
}

// MaterializeRow fills one row of len(descriptors) values from tuple,
// applying assignment conversion to evaluated elements and the configured
// DefaultPolicy to omitted ones. tuple may be shorter than descriptors;
// missing trailing elements are treated as absent.
func MaterializeRow(
	ctx context.Context,
	ectx *expr.Context,
	ev expr.Evaluator,
	vars expr.Vars,
	descriptors []FieldDescriptor,
	tuple []TupleElement,
	seq SequenceManager,
	fc FunctionContext,
	tx kv.Transaction,
) ([]value.Any, error) {
	out := make([]value.Any, len(descriptors))
	for i, d := range descriptors {
		var te TupleElement
		if i < len(tuple) {
			te = tuple[i]
		}
		if te.Present {
			v := ev.Eval(ectx, te.Expr, vars)
			if v.IsError() {
				return nil, MapEvalError(v.Error())
			}
			coerced := assignmentConvert(ectx, ev, v, d.TargetType)
			if coerced.IsError() {
				return nil, MapEvalError(coerced.Error())
			}
			out[i] = coerced
			continue
		}

		switch d.Default.Kind {
		case DefaultNothing:
			if d.Nullable {
				out[i] = value.Empty()
			} else {
				return nil, errtax.New(errtax.ErrNotNullConstraintViolation, "column is not nullable and has no default")
			}
		case DefaultImmediate:
			out[i] = d.Default.Immediate
		case DefaultSequence:
			if seq == nil {
				return nil, errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no sequence manager configured")
			}
			n, err := seq.Next(ctx, d.Default.SequenceID, tx)
			if err != nil {
				return nil, err
			}
			out[i] = value.NewInt(d.TargetType.Kind, int64(n))
		case DefaultFunction:
			if fc == nil {
				return nil, errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no function context configured")
			}
			v, err := fc.Call(ctx, d.Default.FunctionID)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
	}
	return out, nil
}

// assignmentConvert coerces v to target via the same cast matrix scalar
// expressions use, non-lenient: truncation or overflow during the
// conversion surfaces as the matching evaluator error.
func assignmentConvert(ectx *expr.Context, ev expr.Evaluator, v value.Any, target value.FieldType) value.Any {
	if v.IsEmpty() {
		return v
	}
	return ev.Eval(ectx, expr.Cast{Operand: expr.Literal{Value: v}, Target: target, Lenient: false}, noVars{})
}

type noVars struct{}

func (noVars) Column(int) value.Any { return value.Empty() }

// MapEvalError maps an expr.EvalError onto the request-level error taxonomy
// (§7): a length overflow is value_too_long, an unsupported operation or
// cast is unsupported_runtime_feature, and everything else collapses to
// value_evaluation. Both the write pipeline and the operators that evaluate
// expressions ahead of a write (write_existing's updated-column projection)
// go through this so a given evaluator failure surfaces the same taxonomy
// error regardless of which operator triggered it.
func MapEvalError(e *value.EvalError) error {
	if e == nil {
		return errtax.New(errtax.ErrValueEvaluation, "")
	}
	switch e.Kind {
	case value.ErrKindLengthOverflow:
		return errtax.New(errtax.ErrValueTooLong, e.Message)
	case value.ErrKindUnsupported:
		return errtax.New(errtax.ErrUnsupportedRuntimeFeature, e.Message)
	default:
		return errtax.New(errtax.ErrValueEvaluation, e.Error())
	}
}
