package expr

import (
	"testing"

	"github.com/kvsql/engine/value"
)

func TestCastIntegerToCharacterTruncation(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	target := value.FieldType{Kind: value.KindCharacter, Details: value.FieldDetails{Length: 3}}

	got := ev.Eval(ctx, Cast{Operand: text("hello"), Target: target, Lenient: false}, noVars{})
	if !got.IsError() || got.Error().Kind != value.ErrKindLengthOverflow {
		t.Fatalf("expected length_overflow casting 'hello' to char(3), got %v", got)
	}

	lenient := ev.Eval(ctx, Cast{Operand: text("hello"), Target: target, Lenient: true}, noVars{})
	if lenient.IsError() {
		t.Fatalf("unexpected error in lenient cast: %v", lenient.Error())
	}
	b, _ := lenient.AsBytes()
	if string(b) != "hel" {
		t.Errorf("lenient truncation = %q, want \"hel\"", b)
	}
}

func TestCastFixedCharacterPadsWithSpaces(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	target := value.FieldType{Kind: value.KindCharacter, Details: value.FieldDetails{Length: 5, Varying: false}}
	got := ev.Eval(ctx, Cast{Operand: text("ab"), Target: target}, noVars{})
	if got.IsError() {
		t.Fatalf("unexpected error: %v", got.Error())
	}
	b, _ := got.AsBytes()
	if string(b) != "ab   " {
		t.Errorf("padded cast = %q, want \"ab   \"", b)
	}
}

func TestCastStringToIntegerFormatError(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Cast{Operand: text("not a number"), Target: value.FieldType{Kind: value.KindInt4}}, noVars{})
	if !got.IsError() || got.Error().Kind != value.ErrKindFormat {
		t.Fatalf("expected format error, got %v", got)
	}
}

func TestCastIntegerOverflow(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Cast{Operand: Literal{Value: value.NewInt(value.KindInt8, 1000)}, Target: value.FieldType{Kind: value.KindInt1}}, noVars{})
	if !got.IsError() || got.Error().Kind != value.ErrKindOverflow {
		t.Fatalf("expected overflow casting 1000 to int1, got %v", got)
	}
}

func TestCastNullStaysNull(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Cast{Operand: Literal{Value: value.Empty()}, Target: value.FieldType{Kind: value.KindInt4}}, noVars{})
	if !got.IsEmpty() {
		t.Errorf("expected NULL cast to stay NULL, got %v", got)
	}
}

func TestCastDecimalRoundTripViaString(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Cast{Operand: text("123.45"), Target: value.FieldType{Kind: value.KindDecimal}}, noVars{})
	if got.IsError() {
		t.Fatalf("unexpected error: %v", got.Error())
	}
	d, ok := got.AsDecimal()
	if !ok {
		t.Fatal("expected a decimal result")
	}
	if d.String() != "123.45" {
		t.Errorf("got %s, want 123.45", d)
	}
}

func TestCastStringToBooleanAcceptsCaseInsensitivePrefixes(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	target := value.FieldType{Kind: value.KindBoolean}

	for _, s := range []string{"T", "Tr", "TRU", "true", "TRUE"} {
		got := ev.Eval(ctx, Cast{Operand: text(s), Target: target}, noVars{})
		if got.IsError() {
			t.Fatalf("cast %q: unexpected error %v", s, got.Error())
		}
		if b, ok := got.AsBool(); !ok || !b {
			t.Errorf("cast %q = %v, want true", s, got)
		}
	}

	for _, s := range []string{"F", "fa", "FALS", "false", "False"} {
		got := ev.Eval(ctx, Cast{Operand: text(s), Target: target}, noVars{})
		if got.IsError() {
			t.Fatalf("cast %q: unexpected error %v", s, got.Error())
		}
		if b, ok := got.AsBool(); !ok || b {
			t.Errorf("cast %q = %v, want false", s, got)
		}
	}
}

func TestCastStringToBooleanRejectsNonPrefix(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	target := value.FieldType{Kind: value.KindBoolean}

	for _, s := range []string{"yes", "no", "1", "0", "truthy", "tx", "", "maybe"} {
		got := ev.Eval(ctx, Cast{Operand: text(s), Target: target}, noVars{})
		if !got.IsError() || got.Error().Kind != value.ErrKindFormat {
			t.Errorf("cast %q: expected format_error, got %v", s, got)
		}
	}
}
