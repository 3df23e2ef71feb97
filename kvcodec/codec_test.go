package kvcodec

import (
	"bytes"
	"math/big"
	"testing"

	"pgregory.net/rapid"

	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/value"
)

func fieldInfo(ft value.FieldType, nullable bool, coding meta.CodingSpec) meta.FieldInfo {
	return meta.FieldInfo{Type: ft, Nullable: nullable, Coding: coding}
}

func roundTrip(t *testing.T, v value.Any, info meta.FieldInfo) value.Any {
	t.Helper()
	enc, err := EncodeField(nil, v, info)
	if err != nil {
		t.Fatalf("EncodeField: %v", err)
	}
	got, rest, err := DecodeField(enc, info)
	if err != nil {
		t.Fatalf("DecodeField: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("DecodeField left %d trailing bytes", len(rest))
	}
	return got
}

func TestRoundTripScalars(t *testing.T) {
	cases := []struct {
		name string
		v    value.Any
		ft   value.FieldType
	}{
		{"bool_true", value.NewBool(true), value.FieldType{Kind: value.KindBoolean}},
		{"bool_false", value.NewBool(false), value.FieldType{Kind: value.KindBoolean}},
		{"int1_neg", value.NewInt(value.KindInt1, -5), value.FieldType{Kind: value.KindInt1}},
		{"int2", value.NewInt(value.KindInt2, 1234), value.FieldType{Kind: value.KindInt2}},
		{"int4", value.NewInt(value.KindInt4, -123456), value.FieldType{Kind: value.KindInt4}},
		{"int8", value.NewInt(value.KindInt8, 1 << 40), value.FieldType{Kind: value.KindInt8}},
		{"float4", value.NewFloat(value.KindFloat4, 1.5), value.FieldType{Kind: value.KindFloat4}},
		{"float8_neg", value.NewFloat(value.KindFloat8, -2.25), value.FieldType{Kind: value.KindFloat8}},
		{"date", value.NewDate(12345), value.FieldType{Kind: value.KindDate}},
		{"char", value.NewText([]byte("hello\x00world")), value.FieldType{Kind: value.KindCharacter}},
		{"octet", value.NewBinary([]byte{0, 1, 2, 0, 0}), value.FieldType{Kind: value.KindOctet}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := roundTrip(t, c.v, fieldInfo(c.ft, false, meta.Ascending))
			assertValueEqual(t, c.v, got)
		})
	}
}

func TestRoundTripNullable(t *testing.T) {
	info := fieldInfo(value.FieldType{Kind: value.KindInt4}, true, meta.Ascending)
	got := roundTrip(t, value.Empty(), info)
	if !got.IsEmpty() {
		t.Errorf("expected NULL round trip to stay empty, got %v", got)
	}
	got2 := roundTrip(t, value.NewInt(value.KindInt4, 42), info)
	if i, ok := got2.AsInt(); !ok || i != 42 {
		t.Errorf("got %v, want 42", got2)
	}
}

func TestEncodeFieldRejectsNullForNonNullable(t *testing.T) {
	info := fieldInfo(value.FieldType{Kind: value.KindInt4}, false, meta.Ascending)
	if _, err := EncodeField(nil, value.Empty(), info); err == nil {
		t.Error("expected error encoding NULL for a non-nullable field")
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	info := fieldInfo(value.FieldType{Kind: value.KindDecimal}, false, meta.Ascending)
	d, err := value.NewDecimalFromParts(true, big.NewInt(12345), -2)
	if err != nil {
		t.Fatal(err)
	}
	got := roundTrip(t, value.NewDecimal(d), info)
	gd, ok := got.AsDecimal()
	if !ok {
		t.Fatal("expected decimal back")
	}
	if gd.Cmp(d) != 0 {
		t.Errorf("decimal round trip changed value: %s vs %s", gd, d)
	}
}

// TestOrderingAscendingInt4 checks the §3.5 ordering property directly: for
// any two int4 values, the signed comparison agrees with a lexicographic
// comparison of the ascending-coded bytes.
func TestOrderingAscendingInt4(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Int32().Draw(rt, "a")
		b := rapid.Int32().Draw(rt, "b")
		info := fieldInfo(value.FieldType{Kind: value.KindInt4}, false, meta.Ascending)
		ea, err := EncodeField(nil, value.NewInt(value.KindInt4, int64(a)), info)
		if err != nil {
			rt.Fatal(err)
		}
		eb, err := EncodeField(nil, value.NewInt(value.KindInt4, int64(b)), info)
		if err != nil {
			rt.Fatal(err)
		}
		wantLess := a < b
		gotLess := bytes.Compare(ea, eb) < 0
		if a != b && wantLess != gotLess {
			rt.Fatalf("ordering mismatch for a=%d b=%d: wantLess=%v gotLess=%v", a, b, wantLess, gotLess)
		}
	})
}

// TestOrderingDescendingInt4 checks that a Descending coding inverts the
// ascending order.
func TestOrderingDescendingInt4(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Int32().Draw(rt, "a")
		b := rapid.Int32().Draw(rt, "b")
		if a == b {
			return
		}
		info := fieldInfo(value.FieldType{Kind: value.KindInt4}, false, meta.Descending)
		ea, err := EncodeField(nil, value.NewInt(value.KindInt4, int64(a)), info)
		if err != nil {
			rt.Fatal(err)
		}
		eb, err := EncodeField(nil, value.NewInt(value.KindInt4, int64(b)), info)
		if err != nil {
			rt.Fatal(err)
		}
		wantLess := a > b // descending: larger values sort first
		gotLess := bytes.Compare(ea, eb) < 0
		if wantLess != gotLess {
			rt.Fatalf("descending ordering mismatch for a=%d b=%d", a, b)
		}
	})
}

// TestOrderingFloat8 checks total ordering across negatives, positives, and
// NaN (which must sort last).
func TestOrderingFloat8(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Float64().Draw(rt, "a")
		b := rapid.Float64().Draw(rt, "b")
		info := fieldInfo(value.FieldType{Kind: value.KindFloat8}, false, meta.Ascending)
		ea, err := EncodeField(nil, value.NewFloat(value.KindFloat8, a), info)
		if err != nil {
			rt.Fatal(err)
		}
		eb, err := EncodeField(nil, value.NewFloat(value.KindFloat8, b), info)
		if err != nil {
			rt.Fatal(err)
		}
		if a < b && bytes.Compare(ea, eb) >= 0 {
			rt.Fatalf("ordering mismatch for a=%v b=%v", a, b)
		}
	})
}

// TestOrderingCharacter checks byte-string ordering is preserved through the
// escape scheme, including values containing embedded NUL bytes.
func TestOrderingCharacter(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.SliceOf(rapid.Uint8()).Draw(rt, "a")
		b := rapid.SliceOf(rapid.Uint8()).Draw(rt, "b")
		info := fieldInfo(value.FieldType{Kind: value.KindOctet}, false, meta.Ascending)
		ea, err := EncodeField(nil, value.NewBinary(a), info)
		if err != nil {
			rt.Fatal(err)
		}
		eb, err := EncodeField(nil, value.NewBinary(b), info)
		if err != nil {
			rt.Fatal(err)
		}
		wantLess := bytes.Compare(a, b) < 0
		gotLess := bytes.Compare(ea, eb) < 0
		if wantLess != gotLess {
			rt.Fatalf("ordering mismatch for a=%v b=%v", a, b)
		}
	})
}

func assertValueEqual(t *testing.T, want, got value.Any) {
	t.Helper()
	if want.String() != got.String() {
		t.Errorf("got %v, want %v", got, want)
	}
}
