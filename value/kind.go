// Package value implements the engine's dynamically-typed scalar
// containers: the field Kind enum, the trivially-copyable Any used on
// evaluation stacks, and the heap-owning Owned counterpart used for
// parameters and column defaults whose lifetime outlives a stack frame.
package value

// Kind is the closed set of field type kinds the engine understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBoolean
	KindInt1
	KindInt2
	KindInt4
	KindInt8
	KindFloat4
	KindFloat8
	KindDecimal
	KindCharacter
	KindOctet
	KindDate
	KindTimeOfDay
	KindTimePoint
	KindBlob
	KindClob
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInt1:
		return "int1"
	case KindInt2:
		return "int2"
	case KindInt4:
		return "int4"
	case KindInt8:
		return "int8"
	case KindFloat4:
		return "float4"
	case KindFloat8:
		return "float8"
	case KindDecimal:
		return "decimal"
	case KindCharacter:
		return "character"
	case KindOctet:
		return "octet"
	case KindDate:
		return "date"
	case KindTimeOfDay:
		return "time_of_day"
	case KindTimePoint:
		return "time_point"
	case KindBlob:
		return "blob"
	case KindClob:
		return "clob"
	default:
		return "unknown"
	}
}

// IsInteger reports whether k is one of int1/int2/int4/int8.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt1, KindInt2, KindInt4, KindInt8:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is float4 or float8.
func (k Kind) IsFloat() bool {
	return k == KindFloat4 || k == KindFloat8
}

// FieldDetails carries the per-kind refinements referenced by §3.1: decimal
// precision/scale, character/octet declared length and varying-ness, and
// the optional time-zone-carrying flag for temporal kinds.
type FieldDetails struct {
	// Decimal
	Precision int32
	Scale     int32

	// Character / Octet
	Length  int32
	Varying bool

	// TimeOfDay / TimePoint
	HasTimeZone bool
}

// FieldType pairs a Kind with its details and nullability, the unit
// record_meta is built from.
type FieldType struct {
	Kind     Kind
	Nullable bool
	Details  FieldDetails
}

// Equal implements the field-kind/detail/nullability equality used by
// record_meta equality (§3.1: "Two rows are equal iff their field kinds,
// details, and nullability agree position-by-position").
func (f FieldType) Equal(o FieldType) bool {
	return f.Kind == o.Kind && f.Nullable == o.Nullable && f.Details == o.Details
}

// SizeAlign returns the in-memory (size, align) pair for fixed-width kinds
// per the §3.1 table. Variable-length kinds (character/octet when Varying,
// blob/clob) return the pointer+len representation's size/align instead of
// a content-dependent size.
func (f FieldType) SizeAlign() (size, align int) {
	switch f.Kind {
	case KindBoolean, KindInt1:
		return 1, 1
	case KindInt2:
		return 2, 2
	case KindInt4, KindFloat4:
		return 4, 4
	case KindInt8, KindFloat8, KindDate:
		return 8, 8
	case KindDecimal:
		return 24, 8
	case KindTimeOfDay:
		if f.Details.HasTimeZone {
			return 12, 8
		}
		return 8, 8
	case KindTimePoint:
		return 16, 8
	case KindBlob, KindClob:
		return 24, 8
	case KindCharacter, KindOctet:
		// pointer+len view: 8-byte pointer, 8-byte length, on a 64-bit target.
		return 16, 8
	default:
		return 0, 1
	}
}
