package expr

import (
	"unicode/utf8"

	"github.com/kvsql/engine/value"
)

// evalLike implements LIKE with an optional ESCAPE character. Matching
// proceeds over decoded Unicode code points rather than raw bytes, so a
// multi-byte character never straddles a `%`/`_` boundary. Invalid UTF-8
// anywhere in the operand or pattern yields NULL; a trailing unescaped
// escape character, or an escape character that escapes anything other
// than `%`, `_`, or itself, is a format error.
func (e Evaluator) evalLike(ctx *Context, l Like, vars Vars) value.Any {
	operand := e.Eval(ctx, l.Operand, vars)
	if operand.IsError() {
		return operand
	}
	pattern := e.Eval(ctx, l.Pattern, vars)
	if pattern.IsError() {
		return pattern
	}
	if operand.IsEmpty() || pattern.IsEmpty() {
		return value.Empty()
	}

	ob, ok := operand.AsBytes()
	if !ok || operand.Kind() != value.KindCharacter {
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "LIKE requires a character operand"))
	}
	pb, ok := pattern.AsBytes()
	if !ok || pattern.Kind() != value.KindCharacter {
		return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "LIKE requires a character pattern"))
	}

	var escape rune
	hasEscape := false
	if l.Escape != nil {
		ev := e.Eval(ctx, l.Escape, vars)
		if ev.IsError() {
			return ev
		}
		if ev.IsEmpty() {
			return value.Empty()
		}
		eb, ok := ev.AsBytes()
		if !ok {
			return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "LIKE ESCAPE requires a character value"))
		}
		r, size := utf8.DecodeRune(eb)
		if r == utf8.RuneError || size != len(eb) {
			// §7: wrong ESCAPE length is unsupported_runtime_feature, not a
			// format_error (scenario 6: a two-character escape argument).
			return value.NewError(value.NewEvalError(value.ErrKindUnsupported, "ESCAPE must be exactly one character"))
		}
		escape = r
		hasEscape = true
	}

	operandRunes, err := decodeRunes(ob)
	if err != nil {
		return value.Empty()
	}
	patternRunes, err := decodeRunes(pb)
	if err != nil {
		return value.Empty()
	}

	matched, formatErr := likeMatch(operandRunes, patternRunes, escape, hasEscape)
	if formatErr != "" {
		return value.NewError(value.NewEvalError(value.ErrKindFormat, formatErr))
	}
	return value.NewBool(matched)
}

func decodeRunes(b []byte) ([]rune, error) {
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			return nil, value.ErrInvalidUTF8
		}
		out = append(out, r)
		b = b[size:]
	}
	return out, nil
}

// runeCount decodes b as UTF-8 and returns the number of code points, or an
// error if b contains invalid UTF-8.
func runeCount(b []byte) (int, error) {
	r, err := decodeRunes(b)
	if err != nil {
		return 0, err
	}
	return len(r), nil
}

// likeMatch compiles pattern into a sequence of literal/any/wildcard
// tokens and matches it against operand with backtracking over `%`. This is
// a direct, unoptimized interpretation suited to short patterns; it is not
// meant to compete with a regex engine on pathological inputs.
func likeMatch(operand, pattern []rune, escape rune, hasEscape bool) (matched bool, formatErr string) {
	type tok struct {
		any     bool // '%'
		one     bool // '_'
		literal rune
	}
	toks := make([]tok, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if hasEscape && c == escape {
			i++
			if i >= len(pattern) {
				return false, "LIKE pattern ends with an unescaped ESCAPE character"
			}
			next := pattern[i]
			if next != '%' && next != '_' && next != escape {
				return false, "ESCAPE may only precede '%', '_', or itself"
			}
			toks = append(toks, tok{literal: next})
			continue
		}
		switch c {
		case '%':
			toks = append(toks, tok{any: true})
		case '_':
			toks = append(toks, tok{one: true})
		default:
			toks = append(toks, tok{literal: c})
		}
	}

	var match func(ti, oi int) bool
	match = func(ti, oi int) bool {
		for ti < len(toks) {
			t := toks[ti]
			switch {
			case t.any:
				for ti < len(toks) && toks[ti].any {
					ti++
				}
				if ti == len(toks) {
					return true
				}
				for k := oi; k <= len(operand); k++ {
					if match(ti, k) {
						return true
					}
				}
				return false
			case t.one:
				if oi >= len(operand) {
					return false
				}
				oi++
				ti++
			default:
				if oi >= len(operand) || operand[oi] != t.literal {
					return false
				}
				oi++
				ti++
			}
		}
		return oi == len(operand)
	}
	return match(0, 0), ""
}
