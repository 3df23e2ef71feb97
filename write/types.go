// Package write implements the write pipeline: row materialization from a
// VALUES tuple or a projected input, insert_new_record — the
// primary/secondary index maintenance algorithm shared by insert,
// insert_skip, upsert, and update — and DeleteRecord for delete.
package write

import (
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

// Kind selects the write semantics applied on a primary-key collision.
type Kind uint8

const (
	Insert Kind = iota
	InsertSkip
	InsertOverwrite
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case InsertSkip:
		return "insert_skip"
	case InsertOverwrite:
		return "insert_overwrite"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// DefaultKind selects how a column value is produced when the incoming
// tuple omits it.
type DefaultKind uint8

const (
	DefaultNothing DefaultKind = iota
	DefaultImmediate
	DefaultSequence
	DefaultFunction
)

// DefaultPolicy is the column-default descriptor of the row-materialization
// algorithm: exactly one of Immediate/SequenceID/FunctionID is meaningful,
// selected by Kind.
type DefaultPolicy struct {
	Kind       DefaultKind
	Immediate  value.Any
	SequenceID string
	FunctionID string
}

// FieldDescriptor is one column's write_field descriptor: its declared
// type, the stable offsets computed by RecordMeta, the index coding
// direction, and its default policy.
type FieldDescriptor struct {
	TargetType    value.FieldType
	Nullable      bool
	ValueOffset   int
	NullityOffset int
	Coding        meta.CodingSpec
	Default       DefaultPolicy
}

// Stats accumulates the counters a write operation reports back to the
// caller (insert/skip/update/delete counts).
type Stats struct {
	Inserted int64
	Skipped  int64
	Updated  int64
	Deleted  int64
}
