// Package record implements row_ref (§3.3): a view over a row described by
// a meta.RecordMeta. Variable-length payloads referenced from a Row live
// in a caller-supplied arena.Arena and are never owned by the Row itself.
package record

import (
	"reflect"

	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

// Row is the engine's row_ref: a fixed-arity view over field values laid
// out according to a meta.RecordMeta. Unlike the C++ source's raw pointer
// view over a byte buffer, Row holds a slice of value.Any — the
// "tagged-union + index handle" design note of §9 applied to row storage.
// The RecordMeta remains authoritative for binary layout (used by
// kvcodec and the §8 layout-stability property); Row is the in-memory
// carrier operators actually read and write.
type Row struct {
	Meta   *meta.RecordMeta
	Values []value.Any
}

// New allocates a Row with all fields empty (NULL).
func New(m *meta.RecordMeta) *Row {
	return &Row{Meta: m, Values: make([]value.Any, m.FieldCount())}
}

// Get returns the value at field index i.
func (r *Row) Get(i int) value.Any { return r.Values[i] }

// Set assigns the value at field index i.
func (r *Row) Set(i int, v value.Any) { r.Values[i] = v }

// IsNull reports whether field i is NULL.
func (r *Row) IsNull(i int) bool { return r.Values[i].IsEmpty() }

// Clone makes an independent copy of the Row's value slice (the values
// themselves are copied by value; any backing varlen bytes are NOT copied
// — callers that need an arena-independent row must Freeze each field
// individually via value.Freeze).
func (r *Row) Clone() *Row {
	cp := make([]value.Any, len(r.Values))
	copy(cp, r.Values)
	return &Row{Meta: r.Meta, Values: cp}
}

// Equal reports whether two rows have equal metas and equal values
// position-by-position. NaN floats compare unequal per IEEE semantics,
// matching the engine's unordered NaN comparisons (§3.1, §4.1).
func (r *Row) Equal(o *Row) bool {
	if !r.Meta.Equal(o.Meta) || len(r.Values) != len(o.Values) {
		return false
	}
	for i := range r.Values {
		if !anyBitwiseEqual(r.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

func anyBitwiseEqual(a, b value.Any) bool {
	if a.IsEmpty() != b.IsEmpty() {
		return false
	}
	if a.IsEmpty() {
		return true
	}
	// Floats, temporal and LOB values compare field by field (IEEE == for
	// floats, so NaN is unequal to itself); String renders no temporal or
	// LOB payload.
	switch a.Kind() {
	case value.KindFloat4, value.KindFloat8, value.KindTimeOfDay, value.KindTimePoint, value.KindBlob, value.KindClob:
		return reflect.DeepEqual(a, b)
	}
	// Fall back to string rendering for a simple, total equality check;
	// callers needing three-valued SQL comparison semantics use the expr
	// evaluator's Compare, not Row.Equal.
	return a.String() == b.String()
}
