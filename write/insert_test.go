package write

import (
	"context"
	"errors"
	"testing"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/kv/kvtest"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/value"
)

// testTable wires a one-column-PK, one-column-value primary index plus a
// single secondary index on the value column, backed by an in-memory KVS —
// enough surface to exercise insert/upsert/delete and secondary-index
// maintenance end to end.
type testTable struct {
	db        *kvtest.MemKVS
	primary   *meta.PrimaryTarget
	secondary *meta.SecondaryTarget
}

func newTestTable(t *testing.T) *testTable {
	t.Helper()
	db := kvtest.New()
	pkField := meta.FieldInfo{Type: value.FieldType{Kind: value.KindInt4}, RowColumn: 0}
	valField := meta.FieldInfo{Type: value.FieldType{Kind: value.KindCharacter}, RowColumn: 1}

	primaryIdx := &meta.Index{
		Name:        "pk",
		Fields:      []meta.FieldInfo{pkField},
		ValueFields: []meta.FieldInfo{valField},
	}
	secondaryIdx := &meta.Index{
		Name:   "by_value",
		Fields: []meta.FieldInfo{valField},
	}

	db.Declare("t_primary")
	db.Declare("t_by_value")

	return &testTable{
		db:        db,
		primary:   &meta.PrimaryTarget{Index: primaryIdx, StorageName: "t_primary"},
		secondary: &meta.SecondaryTarget{Index: secondaryIdx, StorageName: "t_by_value", PrimaryFields: []meta.FieldInfo{pkField}},
	}
}

func (tt *testTable) views(t *testing.T, guard *txn.Guard) map[string]*txn.View {
	t.Helper()
	primStore, err := tt.db.GetOrCreateStorage(context.Background(), "t_primary")
	if err != nil {
		t.Fatal(err)
	}
	secStore, err := tt.db.GetOrCreateStorage(context.Background(), "t_by_value")
	if err != nil {
		t.Fatal(err)
	}
	return map[string]*txn.View{
		"t_primary":  txn.NewView("t_primary", primStore, guard),
		"t_by_value": txn.NewView("t_by_value", secStore, guard),
	}
}

func (tt *testTable) newGuard(t *testing.T) *txn.Guard {
	t.Helper()
	tx, err := tt.db.BeginTransaction(context.Background(), kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	g, err := txn.NewGuard(tx, kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func rowOf(pk int32, s string) []value.Any {
	return []value.Any{value.NewInt(value.KindInt4, int64(pk)), value.NewText([]byte(s))}
}

func encodeRow(t *testing.T, tt *testTable, row []value.Any) (key, val []byte) {
	t.Helper()
	key, err := EncodeTuple(nil, tt.primary.Index.Fields, selectColumns(row, tt.primary.Index.Fields))
	if err != nil {
		t.Fatal(err)
	}
	val, err = EncodeTuple(nil, tt.primary.Index.ValueFields, selectColumns(row, tt.primary.Index.ValueFields))
	if err != nil {
		t.Fatal(err)
	}
	return key, val
}

func TestInsertDuplicatePrimaryKeyIsUniqueViolation(t *testing.T) {
	tt := newTestTable(t)
	guard := tt.newGuard(t)
	stats := &Stats{}
	row := rowOf(1, "alice")
	key, val := encodeRow(t, tt, row)

	wc := &Context{
		Kind: Insert, Primary: tt.primary, Views: tt.views(t, guard),
		EncodedPK: key, EncodedValue: val, NewRow: row, Stats: stats,
	}
	if err := InsertNewRecord(context.Background(), wc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1", stats.Inserted)
	}

	wc2 := &Context{
		Kind: Insert, Primary: tt.primary, Views: tt.views(t, guard),
		EncodedPK: key, EncodedValue: val, NewRow: row, Stats: stats,
	}
	err := InsertNewRecord(context.Background(), wc2)
	if err == nil {
		t.Fatal("expected a unique constraint violation on duplicate insert")
	}
	if !errtax.Is(err, errtax.ErrUniqueConstraintViolation) {
		t.Errorf("got %v, want ErrUniqueConstraintViolation", err)
	}
}

func TestInsertSkipOnDuplicateDoesNotError(t *testing.T) {
	tt := newTestTable(t)
	guard := tt.newGuard(t)
	stats := &Stats{}
	row := rowOf(1, "alice")
	key, val := encodeRow(t, tt, row)

	for i := 0; i < 2; i++ {
		wc := &Context{
			Kind: InsertSkip, Primary: tt.primary, Views: tt.views(t, guard),
			EncodedPK: key, EncodedValue: val, NewRow: row, Stats: stats,
		}
		if err := InsertNewRecord(context.Background(), wc); err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
	if stats.Inserted != 1 || stats.Skipped != 1 {
		t.Errorf("Inserted=%d Skipped=%d, want 1, 1", stats.Inserted, stats.Skipped)
	}
}

// TestUpsertResyncsSecondaryIndex covers the upsert (insert_overwrite) path
// with a secondary index: inserting then overwriting the same key with a
// changed secondary column must remove the stale secondary entry, add the
// new one, and count the second write as Updated rather than Inserted.
func TestUpsertResyncsSecondaryIndex(t *testing.T) {
	tt := newTestTable(t)
	guard := tt.newGuard(t)
	stats := &Stats{}

	row1 := rowOf(1, "alice")
	key1, val1 := encodeRow(t, tt, row1)
	wc := &Context{
		Kind: InsertOverwrite, Primary: tt.primary, Secondaries: []*meta.SecondaryTarget{tt.secondary},
		Views: tt.views(t, guard), EncodedPK: key1, EncodedValue: val1, NewRow: row1, Stats: stats,
	}
	if err := InsertNewRecord(context.Background(), wc); err != nil {
		t.Fatalf("initial upsert-insert: %v", err)
	}
	if stats.Inserted != 1 || stats.Updated != 0 {
		t.Fatalf("after insert: Inserted=%d Updated=%d, want 1, 0", stats.Inserted, stats.Updated)
	}

	row2 := rowOf(1, "bob")
	key2, val2 := encodeRow(t, tt, row2)
	wc2 := &Context{
		Kind: InsertOverwrite, Primary: tt.primary, Secondaries: []*meta.SecondaryTarget{tt.secondary},
		Views: tt.views(t, guard), EncodedPK: key2, EncodedValue: val2, NewRow: row2, Stats: stats,
	}
	if err := InsertNewRecord(context.Background(), wc2); err != nil {
		t.Fatalf("upsert-update: %v", err)
	}
	if stats.Updated != 1 || stats.Inserted != 1 {
		t.Fatalf("after upsert: Inserted=%d Updated=%d, want 1, 1", stats.Inserted, stats.Updated)
	}

	primStore, _ := tt.db.GetOrCreateStorage(context.Background(), "t_primary")
	got, err := primStore.Get(context.Background(), nil, key1)
	if err != nil {
		t.Fatalf("primary Get: %v", err)
	}
	decoded, err := DecodeTuple(got, tt.primary.Index.ValueFields)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := decoded[0].AsBytes(); string(b) != "bob" {
		t.Errorf("primary value = %q, want bob", b)
	}

	secStore, _ := tt.db.GetOrCreateStorage(context.Background(), "t_by_value")
	aliceKey, err := encodeSecondaryKey(tt.secondary, row1, key1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := secStore.Get(context.Background(), nil, aliceKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected stale secondary entry for alice to be removed, got err=%v", err)
	}
	bobKey, err := encodeSecondaryKey(tt.secondary, row2, key2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := secStore.Get(context.Background(), nil, bobKey); err != nil {
		t.Errorf("expected new secondary entry for bob, got err=%v", err)
	}
}

func TestDeleteRecordIsIdempotent(t *testing.T) {
	tt := newTestTable(t)
	guard := tt.newGuard(t)
	stats := &Stats{}
	row := rowOf(1, "alice")
	key, val := encodeRow(t, tt, row)

	wc := &Context{
		Kind: Insert, Primary: tt.primary, Views: tt.views(t, guard),
		EncodedPK: key, EncodedValue: val, NewRow: row, Stats: stats,
	}
	if err := InsertNewRecord(context.Background(), wc); err != nil {
		t.Fatal(err)
	}

	del := &Context{
		Kind: Delete, Primary: tt.primary, Views: tt.views(t, guard),
		EncodedPK: key, NewRow: row, Stats: stats,
	}
	if err := DeleteRecord(context.Background(), del); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := DeleteRecord(context.Background(), del); err != nil {
		t.Fatalf("second (idempotent) delete: %v", err)
	}
	if stats.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2 (both calls count)", stats.Deleted)
	}
}
