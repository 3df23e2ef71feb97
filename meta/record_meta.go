// Package meta implements the self-describing row layout of §3.1/§3.4: an
// ordered vector of field types, a nullability bitset, and the stable
// (value_offset, nullity_bit_offset) pairs record_meta computes once and
// never changes for a given meta (§8 "row layout stability").
package meta

import "github.com/kvsql/engine/value"

// FieldLayout is the per-field offset information record_meta computes.
type FieldLayout struct {
	Type            value.FieldType
	ValueOffset     int
	NullityBitOffset int // -1 if the field is non-nullable
}

// RecordMeta describes a row as an ordered vector of fields plus the
// layout (offsets, alignment, total size) derived from them.
type RecordMeta struct {
	fields    []FieldLayout
	alignment int
	size      int
}

// NewRecordMeta computes a stable layout for the given ordered field
// types. Nullable fields each get one bit in a leading nullity bitset
// (packed into bytes, one bit per field in declaration order); value
// storage follows the bitset, with each field's offset aligned to its own
// alignment requirement.
func NewRecordMeta(fields []value.FieldType) *RecordMeta {
	nullableCount := 0
	for _, f := range fields {
		if f.Nullable {
			nullableCount++
		}
	}
	bitsetBytes := (nullableCount + 7) / 8

	layouts := make([]FieldLayout, len(fields))
	offset := bitsetBytes
	alignment := 1
	if bitsetBytes > 0 {
		alignment = 1
	}
	nullBit := 0
	for i, f := range fields {
		_, align := f.SizeAlign()
		if align > alignment {
			alignment = align
		}
		offset = alignUp(offset, align)
		size, _ := f.SizeAlign()
		nb := -1
		if f.Nullable {
			nb = nullBit
			nullBit++
		}
		layouts[i] = FieldLayout{Type: f, ValueOffset: offset, NullityBitOffset: nb}
		offset += size
	}
	total := alignUp(offset, alignment)
	return &RecordMeta{fields: layouts, alignment: alignment, size: total}
}

func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	rem := off % align
	if rem == 0 {
		return off
	}
	return off + (align - rem)
}

func (m *RecordMeta) FieldCount() int { return len(m.fields) }

func (m *RecordMeta) Field(i int) FieldLayout { return m.fields[i] }

func (m *RecordMeta) ValueOffset(i int) int { return m.fields[i].ValueOffset }

func (m *RecordMeta) NullityBitOffset(i int) int { return m.fields[i].NullityBitOffset }

func (m *RecordMeta) Alignment() int { return m.alignment }

func (m *RecordMeta) RecordSize() int { return m.size }

// Equal implements the record_meta equality of §3.1: field kinds,
// details, and nullability must agree position-by-position.
func (m *RecordMeta) Equal(o *RecordMeta) bool {
	if len(m.fields) != len(o.fields) {
		return false
	}
	for i := range m.fields {
		if !m.fields[i].Type.Equal(o.fields[i].Type) {
			return false
		}
	}
	return true
}
