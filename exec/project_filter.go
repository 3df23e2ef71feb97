package exec

import (
	"context"

	"github.com/kvsql/engine/expr"
)

// FilterOperator drops rows for which Predicate does not evaluate to
// TRUE (NULL and FALSE both exclude the row, matching SQL WHERE
// semantics).
type FilterOperator struct {
	Source    RowSource
	Predicate expr.Node
	Eval      expr.Evaluator
	Ctx       *expr.Context
}

func NewFilter(src RowSource, pred expr.Node, ectx *expr.Context) *FilterOperator {
	return &FilterOperator{Source: src, Predicate: pred, Ctx: ectx}
}

func (f *FilterOperator) Next(ctx context.Context) (Row, bool, error) {
	for {
		row, ok, err := f.Source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		v := f.Eval.Eval(f.Ctx, f.Predicate, rowVars{row})
		if v.IsError() {
			return nil, false, v.Error()
		}
		if b, isBool := v.AsBool(); isBool && b {
			return row, true, nil
		}
	}
}

func (f *FilterOperator) Close() error { return f.Source.Close() }

// ProjectOperator evaluates Exprs against each input row to produce a new
// row of len(Exprs) columns.
type ProjectOperator struct {
	Source RowSource
	Exprs  []expr.Node
	Eval   expr.Evaluator
	Ctx    *expr.Context
}

func NewProject(src RowSource, exprs []expr.Node, ectx *expr.Context) *ProjectOperator {
	return &ProjectOperator{Source: src, Exprs: exprs, Ctx: ectx}
}

func (p *ProjectOperator) Next(ctx context.Context) (Row, bool, error) {
	row, ok, err := p.Source.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make(Row, len(p.Exprs))
	vars := rowVars{row}
	for i, e := range p.Exprs {
		v := p.Eval.Eval(p.Ctx, e, vars)
		if v.IsError() {
			return nil, false, v.Error()
		}
		out[i] = v
	}
	return out, true, nil
}

func (p *ProjectOperator) Close() error { return p.Source.Close() }
