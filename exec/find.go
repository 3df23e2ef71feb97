package exec

import (
	"context"
	"errors"

	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
)

// FindOperator performs a single point lookup by encoded key and yields
// at most one row.
type FindOperator struct {
	View  *txn.View
	Index *meta.Index
	Key   []byte

	done bool
}

func NewFind(view *txn.View, idx *meta.Index, key []byte) *FindOperator {
	return &FindOperator{View: view, Index: idx, Key: key}
}

func (f *FindOperator) Next(ctx context.Context) (Row, bool, error) {
	if f.done {
		return nil, false, nil
	}
	f.done = true
	val, err := f.View.Get(ctx, f.Key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	row, err := decodeRow(f.Index, f.Key, val)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (f *FindOperator) Close() error { return nil }
