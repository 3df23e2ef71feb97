package exec

import (
	"context"

	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/value"
	"github.com/kvsql/engine/write"
)

// WriteNewOperator drains Source — already-materialized (key, value, row)
// triples from a VALUES list or projected input — and applies each one via
// write.InsertNewRecord. It yields nothing downstream: write_new is a
// terminal operator in the graph, and its effect is observed only through
// the returned Stats.
type WriteNewOperator struct {
	Source  RowMaterializer
	WriteFn func(ctx context.Context, wc *write.Context) error
	Base    write.Context
}

// RowMaterializer produces successive already-materialized rows (and
// their encoded key/value bytes) to write, distinguishing it from
// RowSource, which yields read-path rows.
type RowMaterializer interface {
	Next(ctx context.Context) (row Row, encodedKey, encodedValue []byte, ok bool, err error)
	Close() error
}

func NewWriteNew(src RowMaterializer, base write.Context) *WriteNewOperator {
	return &WriteNewOperator{Source: src, WriteFn: write.InsertNewRecord, Base: base}
}

func (w *WriteNewOperator) Run(ctx context.Context) error {
	for {
		row, key, val, ok, err := w.Source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		wc := w.Base
		wc.EncodedPK = key
		wc.EncodedValue = val
		wc.NewRow = row
		if err := w.WriteFn(ctx, &wc); err != nil {
			return err
		}
	}
}

func (w *WriteNewOperator) Close() error { return w.Source.Close() }

// WriteExistingOperator drains Source — rows read from the primary index
// by an upstream scan/find, each paired with the would-be new row for an
// update — and applies write.InsertNewRecord (Kind == Update) or
// write.DeleteRecord (Kind == Delete) per row.
type WriteExistingOperator struct {
	Source RowSource
	Base   write.Context
	// NewRowExprs, when Base.Kind == write.Update, projects the updated
	// column values from the old row; empty for Delete.
	NewRowExprs []expr.Node
	Eval        expr.Evaluator
	Ctx         *expr.Context
	EncodeKey   func(oldRow Row) ([]byte, error)
	EncodeValue func(newRow Row) ([]byte, error)
}

func (w *WriteExistingOperator) Run(ctx context.Context) error {
	for {
		oldRow, ok, err := w.Source.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		wc := w.Base
		wc.OldRow = []value.Any(oldRow)
		key, err := w.EncodeKey(oldRow)
		if err != nil {
			return err
		}
		wc.EncodedPK = key

		if wc.Kind == write.Delete {
			wc.NewRow = oldRow
			if err := write.DeleteRecord(ctx, &wc); err != nil {
				return err
			}
			continue
		}

		vars := rowVars{oldRow}
		newRow := make(Row, len(w.NewRowExprs))
		for i, e := range w.NewRowExprs {
			v := w.Eval.Eval(w.Ctx, e, vars)
			if v.IsError() {
				return write.MapEvalError(v.Error())
			}
			newRow[i] = v
		}
		val, err := w.EncodeValue(newRow)
		if err != nil {
			return err
		}
		wc.EncodedValue = val
		wc.NewRow = newRow
		if err := write.InsertNewRecord(ctx, &wc); err != nil {
			return err
		}
	}
}

func (w *WriteExistingOperator) Close() error { return w.Source.Close() }
