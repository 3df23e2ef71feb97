package record

import (
	"testing"

	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

func testMeta() *meta.RecordMeta {
	return meta.NewRecordMeta([]value.FieldType{
		{Kind: value.KindInt4},
		{Kind: value.KindCharacter, Nullable: true},
	})
}

func TestNewRowStartsAllNull(t *testing.T) {
	m := testMeta()
	r := New(m)
	for i := 0; i < m.FieldCount(); i++ {
		if !r.IsNull(i) {
			t.Fatalf("field %d should start NULL", i)
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	r := New(testMeta())
	r.Set(0, value.NewInt(value.KindInt4, 7))
	r.Set(1, value.NewText([]byte("hi")))

	got, ok := r.Get(0).AsInt()
	if !ok || got != 7 {
		t.Fatalf("Get(0) = %v, %v, want 7 true", got, ok)
	}
	if r.IsNull(1) {
		t.Fatalf("field 1 should not be null after Set")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := New(testMeta())
	r.Set(0, value.NewInt(value.KindInt4, 1))
	clone := r.Clone()
	clone.Set(0, value.NewInt(value.KindInt4, 2))

	orig, _ := r.Get(0).AsInt()
	cloned, _ := clone.Get(0).AsInt()
	if orig != 1 || cloned != 2 {
		t.Fatalf("clone should be independent: orig=%d cloned=%d", orig, cloned)
	}
}

func TestEqualComparesMetaAndValues(t *testing.T) {
	m := testMeta()
	a := New(m)
	b := New(m)
	a.Set(0, value.NewInt(value.KindInt4, 5))
	b.Set(0, value.NewInt(value.KindInt4, 5))
	if !a.Equal(b) {
		t.Fatalf("expected equal rows")
	}
	b.Set(0, value.NewInt(value.KindInt4, 6))
	if a.Equal(b) {
		t.Fatalf("expected unequal rows after mutation")
	}
}
