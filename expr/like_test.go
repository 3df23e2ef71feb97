package expr

import (
	"testing"

	"github.com/kvsql/engine/arena"
	"github.com/kvsql/engine/value"
)

type noVars struct{}

func (noVars) Column(int) value.Any { return value.Empty() }

func newTestContext() *Context {
	return NewContext(arena.New())
}

func text(s string) Node { return Literal{Value: value.NewText([]byte(s))} }

func TestLikeBasicPatterns(t *testing.T) {
	cases := []struct {
		name    string
		operand string
		pattern string
		want    bool
	}{
		{"exact", "hello", "hello", true},
		{"percent_prefix", "hello world", "%world", true},
		{"percent_suffix", "hello world", "hello%", true},
		{"underscore", "cat", "c_t", true},
		{"underscore_mismatch", "coat", "c_t", false},
		{"percent_middle", "abcdef", "ab%ef", true},
		{"no_match", "abc", "xyz", false},
	}
	ev := Evaluator{}
	ctx := newTestContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ev.Eval(ctx, Like{Operand: text(c.operand), Pattern: text(c.pattern)}, noVars{})
			if got.IsError() {
				t.Fatalf("unexpected error: %v", got.Error())
			}
			b, ok := got.AsBool()
			if !ok {
				t.Fatalf("expected bool result, got %v", got)
			}
			if b != c.want {
				t.Errorf("LIKE(%q, %q) = %v, want %v", c.operand, c.pattern, b, c.want)
			}
		})
	}
}

func TestLikeEscapeMatchesLiteralPercent(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Like{Operand: text("100%"), Pattern: text("100!%"), Escape: text("!")}, noVars{})
	if got.IsError() {
		t.Fatalf("unexpected error: %v", got.Error())
	}
	if b, _ := got.AsBool(); !b {
		t.Error("expected escaped literal %% to match")
	}
}

func TestLikeTwoCharacterEscapeIsUnsupported(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Like{Operand: text("abc"), Pattern: text("a%c"), Escape: text("!!")}, noVars{})
	if !got.IsError() {
		t.Fatalf("expected an error for a two-character ESCAPE, got %v", got)
	}
	if got.Error().Kind != value.ErrKindUnsupported {
		t.Errorf("Kind = %v, want ErrKindUnsupported", got.Error().Kind)
	}
}

func TestLikeDanglingEscapeIsFormatError(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Like{Operand: text("abc"), Pattern: text("abc!"), Escape: text("!")}, noVars{})
	if !got.IsError() {
		t.Fatalf("expected a format error for a trailing escape, got %v", got)
	}
	if got.Error().Kind != value.ErrKindFormat {
		t.Errorf("Kind = %v, want ErrKindFormat", got.Error().Kind)
	}
}

func TestLikeNullOperandIsEmpty(t *testing.T) {
	ev := Evaluator{}
	ctx := newTestContext()
	got := ev.Eval(ctx, Like{Operand: Literal{Value: value.Empty()}, Pattern: text("a%")}, noVars{})
	if !got.IsEmpty() {
		t.Errorf("expected NULL operand to yield NULL, got %v", got)
	}
}
