package exec

import (
	"context"

	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/value"
)

// AggFunc names a supported set function.
type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// AggSpec describes one aggregate column: Func applied to the value
// produced by evaluating Expr against each member row of a group.
type AggSpec struct {
	Func AggFunc
	Expr expr.Node
}

// pairVars exposes exactly two columns (used to fold an accumulator
// against the next operand via the ordinary scalar evaluator, so SUM/AVG
// reuse the same Add/Div arithmetic every other expression goes through
// instead of a parallel numeric-folding implementation).
type pairVars struct{ a, b value.Any }

func (p pairVars) Column(i int) value.Any {
	if i == 0 {
		return p.a
	}
	return p.b
}

var addExpr = expr.Binary{Op: expr.Add, Left: expr.ColumnRef{Index: 0}, Right: expr.ColumnRef{Index: 1}}
var divExpr = expr.Binary{Op: expr.Div, Left: expr.ColumnRef{Index: 0}, Right: expr.ColumnRef{Index: 1}}

// AggregateOperator folds each of Specs over successive runs of Source
// rows that share the same GroupKey column values, emitting one output
// row per run: the group key columns followed by one column per Specs
// entry. Source must already be grouped (cogroup or a sorted scan
// upstream); this operator performs no sort of its own, matching the
// teacher's scan-feeds-aggregate pipeline shape.
type AggregateOperator struct {
	Source   RowSource
	GroupKey []int
	Specs    []AggSpec
	Eval     expr.Evaluator
	Ctx      *expr.Context

	pending Row
	done    bool
}

func NewAggregate(src RowSource, groupKey []int, specs []AggSpec, ectx *expr.Context) *AggregateOperator {
	return &AggregateOperator{Source: src, GroupKey: groupKey, Specs: specs, Ctx: ectx}
}

func (a *AggregateOperator) Next(ctx context.Context) (Row, bool, error) {
	if a.done {
		return nil, false, nil
	}
	if a.pending == nil {
		row, ok, err := a.Source.Next(ctx)
		if err != nil || !ok {
			a.done = true
			return nil, false, err
		}
		a.pending = row
	}

	key := a.keyOf(a.pending)
	counts := make([]int64, len(a.Specs))
	accs := make([]value.Any, len(a.Specs))
	first := make([]bool, len(a.Specs))
	for i := range first {
		first[i] = true
	}

	for {
		a.fold(a.pending, counts, accs, first)
		next, ok, err := a.Source.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			a.pending = nil
			a.done = true
			break
		}
		if !a.sameGroup(key, next) {
			a.pending = next
			break
		}
		a.pending = next
	}

	out := make(Row, 0, len(key)+len(a.Specs))
	out = append(out, key...)
	for i, spec := range a.Specs {
		out = append(out, a.finish(spec, counts[i], accs[i]))
	}
	return out, true, nil
}

func (a *AggregateOperator) keyOf(row Row) Row {
	key := make(Row, len(a.GroupKey))
	for i, col := range a.GroupKey {
		key[i] = row[col]
	}
	return key
}

func (a *AggregateOperator) sameGroup(key Row, row Row) bool {
	for i, col := range a.GroupKey {
		cmp, ok := expr.Compare(key[i], row[col])
		if !ok || cmp != 0 {
			return false
		}
	}
	return true
}

func (a *AggregateOperator) fold(row Row, counts []int64, accs []value.Any, first []bool) {
	vars := rowVars{row}
	for i, spec := range a.Specs {
		v := a.Eval.Eval(a.Ctx, spec.Expr, vars)
		if spec.Func == AggCount {
			if !v.IsEmpty() {
				counts[i]++
			}
			continue
		}
		if v.IsEmpty() {
			continue
		}
		counts[i]++
		switch spec.Func {
		case AggSum, AggAvg:
			if first[i] {
				accs[i] = v
			} else {
				accs[i] = a.Eval.Eval(a.Ctx, addExpr, pairVars{accs[i], v})
			}
		case AggMin:
			if first[i] {
				accs[i] = v
			} else if cmp, ok := expr.Compare(v, accs[i]); ok && cmp < 0 {
				accs[i] = v
			}
		case AggMax:
			if first[i] {
				accs[i] = v
			} else if cmp, ok := expr.Compare(v, accs[i]); ok && cmp > 0 {
				accs[i] = v
			}
		}
		first[i] = false
	}
}

func (a *AggregateOperator) finish(spec AggSpec, count int64, acc value.Any) value.Any {
	switch spec.Func {
	case AggCount:
		return value.NewInt(value.KindInt8, count)
	case AggAvg:
		if count == 0 {
			return value.Empty()
		}
		return a.Eval.Eval(a.Ctx, divExpr, pairVars{acc, value.NewInt(value.KindInt8, count)})
	default:
		if count == 0 {
			return value.Empty()
		}
		return acc
	}
}

func (a *AggregateOperator) Close() error { return a.Source.Close() }
