// Package vartable implements the variable table that binds plan
// parameters and projected input columns to the positional slots a
// compiled expression tree addresses via expr.ColumnRef. A Table is
// rebuilt per task and owns no data beyond the arena it's handed: values
// it holds are either literals already resolved at plan-build time or
// slices into an upstream arena.
package vartable

import (
	"github.com/kvsql/engine/arena"
	"github.com/kvsql/engine/value"
)

// Table is a flat, positionally-indexed binding of values to the slots a
// plan's expression trees reference by index. It implements expr.Vars.
type Table struct {
	slots []value.Any
	arena *arena.Arena
}

// New creates a Table with width slots, all initially empty (NULL), backed
// by ar for any payload copies the caller performs while binding.
func New(ar *arena.Arena, width int) *Table {
	return &Table{slots: make([]value.Any, width), arena: ar}
}

// Column implements expr.Vars.
func (t *Table) Column(i int) value.Any {
	if i < 0 || i >= len(t.slots) {
		return value.Empty()
	}
	return t.slots[i]
}

// Bind sets slot i to v directly; the caller is responsible for ensuring
// any backing byte slice in v outlives the table (typically by having
// copied it into t.Arena() already).
func (t *Table) Bind(i int, v value.Any) {
	if i < 0 || i >= len(t.slots) {
		return
	}
	t.slots[i] = v
}

// BindCopy is like Bind but, for character/octet values, copies the
// backing bytes into the table's arena first so the binding survives the
// source row being overwritten or reused.
func (t *Table) BindCopy(i int, v value.Any) {
	if b, ok := v.AsBytes(); ok {
		cp := t.arena.AllocateCopy(b)
		if v.Kind() == value.KindCharacter {
			v = value.NewText(cp)
		} else {
			v = value.NewBinary(cp)
		}
	}
	t.Bind(i, v)
}

// Width reports the number of bound slots.
func (t *Table) Width() int { return len(t.slots) }

// Arena returns the backing arena, for callers materializing new values
// (e.g. Concat results) that should share the table's lifetime.
func (t *Table) Arena() *arena.Arena { return t.arena }

// BindRow binds values to consecutive slots starting at offset, copying
// each through BindCopy; convenient for binding a whole projected
// record.Row in one call.
func (t *Table) BindRow(offset int, values []value.Any) {
	for i, v := range values {
		t.BindCopy(offset+i, v)
	}
}

// Reset clears every slot to empty without releasing the arena; callers
// that reuse a Table across tasks pair this with arena.Arena.DeallocateAfter
// at a checkpoint taken before the first Bind of a task.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = value.Empty()
	}
}
