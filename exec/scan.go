package exec

import (
	"context"

	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/write"
)

// ScanOperator streams every row in Range from one index's storage,
// decoding (key, value) into a full-width Row. It yields voluntarily
// every YieldInterval rows (0 disables yielding) so a caller driving
// cooperative scheduling gets a chance to check cancellation between
// batches, per §4.3.5.
type ScanOperator struct {
	View          *txn.View
	Index         *meta.Index
	YieldInterval int

	it     kv.Iterator
	count  int
	closed bool
}

func NewScan(view *txn.View, idx *meta.Index, yieldInterval int) *ScanOperator {
	return &ScanOperator{View: view, Index: idx, YieldInterval: yieldInterval}
}

func (s *ScanOperator) open(ctx context.Context, r Range) error {
	it, err := s.View.Scan(ctx, r)
	if err != nil {
		return err
	}
	s.it = it
	return nil
}

// Run starts the scan over r; must be called before the first Next.
func (s *ScanOperator) Run(ctx context.Context, r Range) error {
	if r.IsEmpty {
		s.it = emptyIterator{}
		return nil
	}
	return s.open(ctx, r)
}

func (s *ScanOperator) Next(ctx context.Context) (Row, bool, error) {
	if s.it == nil {
		return nil, false, nil
	}
	ok, err := s.it.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	s.count++
	row, err := decodeRow(s.Index, s.it.Key(), s.it.Value())
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (s *ScanOperator) Close() error {
	if s.closed || s.it == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.it.Close()
}

// ShouldYield reports whether the scan has read a multiple of
// YieldInterval rows since it started, a cooperative checkpoint the
// scheduler can poll between Next calls.
func (s *ScanOperator) ShouldYield() bool {
	return s.YieldInterval > 0 && s.count > 0 && s.count%s.YieldInterval == 0
}

func decodeRow(idx *meta.Index, key, val []byte) (Row, error) {
	keyValues, err := write.DecodeTuple(key, idx.Fields)
	if err != nil {
		return nil, err
	}
	valValues, err := write.DecodeTuple(val, idx.ValueFields)
	if err != nil {
		return nil, err
	}
	return Row(write.AssembleRow(idx, keyValues, valValues)), nil
}

type emptyIterator struct{}

func (emptyIterator) Next(ctx context.Context) (bool, error) { return false, nil }
func (emptyIterator) Key() []byte                            { return nil }
func (emptyIterator) Value() []byte                           { return nil }
func (emptyIterator) Close() error                            { return nil }
