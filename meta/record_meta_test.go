package meta

import (
	"testing"

	"github.com/kvsql/engine/value"
)

func TestRecordMetaLayoutStability(t *testing.T) {
	fields := []value.FieldType{
		{Kind: value.KindBoolean, Nullable: true},
		{Kind: value.KindInt8},
		{Kind: value.KindInt4, Nullable: true},
	}
	a := NewRecordMeta(fields)
	b := NewRecordMeta(fields)

	if a.FieldCount() != 3 {
		t.Fatalf("FieldCount() = %d, want 3", a.FieldCount())
	}
	for i := 0; i < a.FieldCount(); i++ {
		if a.ValueOffset(i) != b.ValueOffset(i) || a.NullityBitOffset(i) != b.NullityBitOffset(i) {
			t.Errorf("field %d offsets differ between two layouts of the same field list", i)
		}
	}
	if a.RecordSize() != b.RecordSize() {
		t.Errorf("RecordSize differs: %d vs %d", a.RecordSize(), b.RecordSize())
	}
}

func TestRecordMetaInt8AlignmentAfterBitset(t *testing.T) {
	// One nullable boolean (1 bit -> 1 bitset byte) followed by an int8
	// (8-byte aligned) must push the int8's offset up to the next multiple
	// of 8, not sit immediately after the 1-byte bitset.
	fields := []value.FieldType{
		{Kind: value.KindBoolean, Nullable: true},
		{Kind: value.KindInt8},
	}
	m := NewRecordMeta(fields)
	if off := m.ValueOffset(1); off%8 != 0 {
		t.Errorf("int8 ValueOffset = %d, want a multiple of 8", off)
	}
}

func TestRecordMetaNonNullableHasNoNullityBit(t *testing.T) {
	fields := []value.FieldType{{Kind: value.KindInt4, Nullable: false}}
	m := NewRecordMeta(fields)
	if got := m.NullityBitOffset(0); got != -1 {
		t.Errorf("NullityBitOffset = %d, want -1 for a non-nullable field", got)
	}
}

func TestRecordMetaEqual(t *testing.T) {
	a := NewRecordMeta([]value.FieldType{{Kind: value.KindInt4}, {Kind: value.KindCharacter, Nullable: true}})
	b := NewRecordMeta([]value.FieldType{{Kind: value.KindInt4}, {Kind: value.KindCharacter, Nullable: true}})
	c := NewRecordMeta([]value.FieldType{{Kind: value.KindInt4}, {Kind: value.KindCharacter, Nullable: false}})

	if !a.Equal(b) {
		t.Error("expected identical field lists to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected differing nullability to compare unequal")
	}
}
