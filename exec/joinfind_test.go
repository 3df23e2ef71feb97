package exec

import (
	"context"
	"testing"

	"github.com/kvsql/engine/arena"
	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/kv/kvtest"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/value"
	"github.com/kvsql/engine/write"
)

// sliceSource is a RowSource over a fixed in-memory slice, for feeding
// join_find's left input in tests.
type sliceSource struct {
	rows []Row
	pos  int
}

func (s *sliceSource) Next(ctx context.Context) (Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

func (s *sliceSource) Close() error { return nil }

func int4Row(v int32) Row { return Row{value.NewInt(value.KindInt4, int64(v))} }

func setupJoinFixture(t *testing.T, rightKeys []int32) (*txn.View, *meta.Index) {
	t.Helper()
	db := kvtest.New()
	db.Declare("right")
	storage, err := db.GetOrCreateStorage(context.Background(), "right")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := db.BeginTransaction(context.Background(), kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	guard, err := txn.NewGuard(tx, kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	view := txn.NewView("right", storage, guard)

	idx := &meta.Index{Fields: []meta.FieldInfo{{Type: value.FieldType{Kind: value.KindInt4}, RowColumn: 0}}}
	for _, k := range rightKeys {
		key, err := write.EncodeTuple(nil, idx.Fields, []value.Any{value.NewInt(value.KindInt4, int64(k))})
		if err != nil {
			t.Fatal(err)
		}
		if err := view.Put(context.Background(), key, nil, kv.Create); err != nil {
			t.Fatal(err)
		}
	}
	return view, idx
}

func TestJoinFindFullOuter(t *testing.T) {
	view, idx := setupJoinFixture(t, []int32{1, 2, 3})
	left := &sliceSource{rows: []Row{int4Row(1), int4Row(2), int4Row(99)}}

	ev := expr.Evaluator{}
	ectx := expr.NewContext(arena.New())
	keyExprs := []expr.Node{expr.ColumnRef{Index: 0}}

	j := NewJoinFind(left, view, idx, keyExprs, nil, JoinFullOuter, 1, 1, ev, ectx)

	keyIDs := map[string]uint32{}
	nextID := uint32(0)
	rightKeyID := func(k []byte) uint32 {
		s := string(k)
		if id, ok := keyIDs[s]; ok {
			return id
		}
		id := nextID
		keyIDs[s] = id
		nextID++
		return id
	}
	allRight := func(ctx context.Context) (RowSource, error) {
		scan := NewScan(view, idx, 0)
		if err := scan.Run(ctx, Range{}); err != nil {
			return nil, err
		}
		return scan, nil
	}
	j.WithFullOuterSupport(rightKeyID, allRight)

	var got []Row
	for {
		row, ok, err := j.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, row)
	}

	if len(got) != 4 {
		t.Fatalf("got %d rows, want 4: %v", len(got), got)
	}

	// left=1 matched right=1
	if i, _ := got[0][0].AsInt(); i != 1 {
		t.Errorf("row0 left = %v, want 1", got[0][0])
	}
	if i, _ := got[0][1].AsInt(); i != 1 {
		t.Errorf("row0 right = %v, want 1", got[0][1])
	}
	// left=99 unmatched: right side NULL
	if i, _ := got[2][0].AsInt(); i != 99 {
		t.Errorf("row2 left = %v, want 99", got[2][0])
	}
	if !got[2][1].IsEmpty() {
		t.Errorf("row2 right = %v, want NULL", got[2][1])
	}
	// unmatched right key 3 emitted with left NULLed
	last := got[3]
	if !last[0].IsEmpty() {
		t.Errorf("row3 left = %v, want NULL", last[0])
	}
	if i, _ := last[1].AsInt(); i != 3 {
		t.Errorf("row3 right = %v, want 3", last[1])
	}
}

func TestJoinFindInnerSkipsUnmatched(t *testing.T) {
	view, idx := setupJoinFixture(t, []int32{1})
	left := &sliceSource{rows: []Row{int4Row(1), int4Row(2)}}
	ev := expr.Evaluator{}
	ectx := expr.NewContext(arena.New())
	keyExprs := []expr.Node{expr.ColumnRef{Index: 0}}
	j := NewJoinFind(left, view, idx, keyExprs, nil, JoinInner, 1, 1, ev, ectx)

	var got []Row
	for {
		row, ok, err := j.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, row)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1 (inner join drops the unmatched left row)", len(got))
	}
}
