package value

import "fmt"

// AnyTag discriminates the variant held by an Any.
type AnyTag uint8

const (
	// TagEmpty represents SQL NULL.
	TagEmpty AnyTag = iota
	TagError
	TagScalar
	// TagIndexPosition carries a plan-internal column/slot index, used on
	// evaluation stacks to reference operator output positions rather than
	// a materialized value.
	TagIndexPosition
)

// Any is the engine's dynamically-typed, trivially-copyable value
// container (§3.2). It holds exactly one of: empty (NULL), an error, a
// typed scalar, or an index position. Any is a plain value type: copying
// it copies the (small) backing fields; character/binary payloads are
// slices into an arena or into durable parameter storage and are never
// owned by the Any itself (see Owned for the heap-owning counterpart).
type Any struct {
	tag  AnyTag
	kind Kind

	i     int64 // bool(0/1), int1/2/4/8, date (days), time_of_day (ns since midnight), time_point (seconds)
	frac  int64 // time_point nanos; time_of_day/time_point zone offset minutes packed in tzOffset
	f     float64
	dec   Decimal
	bytes []byte // character (UTF-8) / octet payload
	lob   LOBReference
	err   *EvalError
	pos   int

	tzOffset    int32
	hasTimeZone bool
}

func Empty() Any { return Any{tag: TagEmpty} }

func (a Any) IsEmpty() bool { return a.tag == TagEmpty }
func (a Any) IsError() bool { return a.tag == TagError }
func (a Any) IsScalar() bool { return a.tag == TagScalar }
func (a Any) Kind() Kind     { return a.kind }

func NewError(err *EvalError) Any {
	return Any{tag: TagError, err: err}
}

func (a Any) Error() *EvalError { return a.err }

func NewIndexPosition(idx int) Any {
	return Any{tag: TagIndexPosition, pos: idx}
}

func (a Any) IndexPosition() (int, bool) {
	if a.tag != TagIndexPosition {
		return 0, false
	}
	return a.pos, true
}

func NewBool(v bool) Any {
	var i int64
	if v {
		i = 1
	}
	return Any{tag: TagScalar, kind: KindBoolean, i: i}
}

func (a Any) AsBool() (bool, bool) {
	if a.tag != TagScalar || a.kind != KindBoolean {
		return false, false
	}
	return a.i != 0, true
}

func NewInt(kind Kind, v int64) Any {
	return Any{tag: TagScalar, kind: kind, i: v}
}

func (a Any) AsInt() (int64, bool) {
	if a.tag != TagScalar || !a.kind.IsInteger() {
		return 0, false
	}
	return a.i, true
}

func NewFloat(kind Kind, v float64) Any {
	return Any{tag: TagScalar, kind: kind, f: v}
}

func (a Any) AsFloat() (float64, bool) {
	if a.tag != TagScalar || !a.kind.IsFloat() {
		return 0, false
	}
	return a.f, true
}

func NewDecimal(d Decimal) Any {
	return Any{tag: TagScalar, kind: KindDecimal, dec: d}
}

func (a Any) AsDecimal() (Decimal, bool) {
	if a.tag != TagScalar || a.kind != KindDecimal {
		return Decimal{}, false
	}
	return a.dec, true
}

// NewText wraps a UTF-8 byte slice as a character value. The caller owns
// the backing slice's lifetime (arena or durable storage).
func NewText(b []byte) Any {
	return Any{tag: TagScalar, kind: KindCharacter, bytes: b}
}

func NewBinary(b []byte) Any {
	return Any{tag: TagScalar, kind: KindOctet, bytes: b}
}

func (a Any) AsBytes() ([]byte, bool) {
	if a.tag != TagScalar || (a.kind != KindCharacter && a.kind != KindOctet) {
		return nil, false
	}
	return a.bytes, true
}

// NewDate wraps a day count since 1970-01-01 (§3.1 date).
func NewDate(days int64) Any {
	return Any{tag: TagScalar, kind: KindDate, i: days}
}

func (a Any) AsDate() (int64, bool) {
	if a.tag != TagScalar || a.kind != KindDate {
		return 0, false
	}
	return a.i, true
}

// NewTimeOfDay wraps nanoseconds since midnight with an optional zone
// offset in minutes.
func NewTimeOfDay(nanos int64, tzOffsetMinutes int32, hasTZ bool) Any {
	return Any{tag: TagScalar, kind: KindTimeOfDay, i: nanos, tzOffset: tzOffsetMinutes, hasTimeZone: hasTZ}
}

func (a Any) AsTimeOfDay() (nanos int64, tzOffsetMinutes int32, hasTZ bool, ok bool) {
	if a.tag != TagScalar || a.kind != KindTimeOfDay {
		return 0, 0, false, false
	}
	return a.i, a.tzOffset, a.hasTimeZone, true
}

// NewTimePoint wraps seconds + nanos since epoch with an optional zone
// offset in minutes.
func NewTimePoint(seconds, nanos int64, tzOffsetMinutes int32, hasTZ bool) Any {
	return Any{tag: TagScalar, kind: KindTimePoint, i: seconds, frac: nanos, tzOffset: tzOffsetMinutes, hasTimeZone: hasTZ}
}

func (a Any) AsTimePoint() (seconds, nanos int64, tzOffsetMinutes int32, hasTZ bool, ok bool) {
	if a.tag != TagScalar || a.kind != KindTimePoint {
		return 0, 0, 0, false, false
	}
	return a.i, a.frac, a.tzOffset, a.hasTimeZone, true
}

func NewLOB(kind Kind, ref LOBReference) Any {
	return Any{tag: TagScalar, kind: kind, lob: ref}
}

func (a Any) AsLOB() (LOBReference, bool) {
	if a.tag != TagScalar || (a.kind != KindBlob && a.kind != KindClob) {
		return LOBReference{}, false
	}
	return a.lob, true
}

func (a Any) String() string {
	switch a.tag {
	case TagEmpty:
		return "NULL"
	case TagError:
		return "ERROR(" + a.err.Error() + ")"
	case TagIndexPosition:
		return fmt.Sprintf("#%d", a.pos)
	default:
		return fmt.Sprintf("%s(%v)", a.kind, a.rawValue())
	}
}

func (a Any) rawValue() any {
	switch a.kind {
	case KindBoolean:
		return a.i != 0
	case KindInt1, KindInt2, KindInt4, KindInt8, KindDate:
		return a.i
	case KindFloat4, KindFloat8:
		return a.f
	case KindDecimal:
		return a.dec.String()
	case KindCharacter, KindOctet:
		return string(a.bytes)
	default:
		return nil
	}
}
