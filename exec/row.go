// Package exec implements the operator graph runtime: a pull-based
// iterator (RowSource) over every operator in the inventory (scan, find,
// join_find, cogroup, aggregate, project, filter, emit, write_existing,
// write_new, apply), plus the task/work context scaffolding that binds an
// operator tree to one scheduler task.
package exec

import (
	"context"

	"github.com/kvsql/engine/value"
)

// Row is a materialized tuple of column values, indexed the same way a
// plan's expression trees address columns via expr.ColumnRef.
type Row []value.Any

// Clone returns a copy of r, safe to retain past the next RowSource.Next
// call (most sources reuse their row buffer for efficiency).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// RowSource is the pull-based interface every operator implements: Next
// reports the next row, or ok=false once exhausted. Sources must be
// Closed exactly once, even on error or early abandonment (e.g. a LIMIT
// upstream, or cancellation), so they can release KVS iterators.
type RowSource interface {
	Next(ctx context.Context) (row Row, ok bool, err error)
	Close() error
}

// rowVars adapts a Row to expr.Vars.
type rowVars struct {
	row Row
}

func (v rowVars) Column(i int) value.Any {
	if i < 0 || i >= len(v.row) {
		return value.Empty()
	}
	return v.row[i]
}
