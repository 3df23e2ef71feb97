package exec

import (
	"context"

	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/lob"
	"github.com/kvsql/engine/value"
)

// TableFunction is a bound table-valued function, the callee of apply
// (§4.3.4): given the evaluated argument values for one left row, it
// produces a lazy finite sequence of output tuples, each already limited
// and renamed to the `AS R(c1, c2, ...)` column list by the caller's plan
// (the function itself is unaware of the alias list).
type TableFunction interface {
	Open(ctx context.Context, args []value.Any) (TableFunctionRows, error)
}

// TableFunctionRows is the per-invocation cursor a TableFunction.Open
// returns.
type TableFunctionRows interface {
	Next(ctx context.Context) (row []value.Any, ok bool, err error)
	Close() error
}

// ApplyOperator implements CROSS APPLY / OUTER APPLY (§4.3.4): for each
// left row, evaluate ArgExprs and invoke Func, emitting one joined row per
// produced tuple. When Outer is true and the function produces nothing,
// one row is still emitted with RightWidth NULLs on the right. A LOB
// produced by the function is rebound from the session provider to the
// durable provider (Rebinder, optional) before the row is returned,
// matching the request-boundary rule of §4.3.4.
type ApplyOperator struct {
	Left       RowSource
	ArgExprs   []expr.Node
	Func       TableFunction
	Outer      bool
	RightWidth int
	Eval       expr.Evaluator
	Ctx        *expr.Context
	Rebinder   *lob.Rebinder // nil disables rebinding (e.g. intra-request reuse)

	leftRow   Row
	cursor    TableFunctionRows
	producedAny bool
}

func NewApply(left RowSource, argExprs []expr.Node, fn TableFunction, outer bool, rightWidth int, ectx *expr.Context) *ApplyOperator {
	return &ApplyOperator{Left: left, ArgExprs: argExprs, Func: fn, Outer: outer, RightWidth: rightWidth, Ctx: ectx}
}

func (a *ApplyOperator) Next(ctx context.Context) (Row, bool, error) {
	for {
		if a.cursor == nil {
			row, ok, err := a.Left.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			args := make([]value.Any, len(a.ArgExprs))
			vars := rowVars{row}
			for i, e := range a.ArgExprs {
				v := a.Eval.Eval(a.Ctx, e, vars)
				if v.IsError() {
					return nil, false, v.Error()
				}
				args[i] = v
			}
			cursor, err := a.Func.Open(ctx, args)
			if err != nil {
				return nil, false, err
			}
			a.leftRow = row
			a.cursor = cursor
			a.producedAny = false
		}

		right, ok, err := a.cursor.Next(ctx)
		if err != nil {
			a.cursor.Close()
			a.cursor = nil
			return nil, false, err
		}
		if !ok {
			a.cursor.Close()
			a.cursor = nil
			if !a.producedAny && a.Outer {
				return concatRows(a.leftRow, emptyRow(a.RightWidth)), true, nil
			}
			continue
		}
		a.producedAny = true
		rightRow := Row(right)
		if a.Rebinder != nil {
			if err := a.Rebinder.RebindRow(rightRow); err != nil {
				return nil, false, err
			}
		}
		return concatRows(a.leftRow, rightRow), true, nil
	}
}

func (a *ApplyOperator) Close() error {
	if a.cursor != nil {
		a.cursor.Close()
	}
	return a.Left.Close()
}
