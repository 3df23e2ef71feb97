package expr

import (
	"github.com/kvsql/engine/arena"
	"github.com/kvsql/engine/value"
)

// Vars is the minimal view the evaluator needs of a variable table: the
// ability to read the bound value at a given plan-assigned column index.
// vartable.Table implements this.
type Vars interface {
	Column(i int) value.Any
}

// Context is the mutable evaluator_context of §4.1: a lost-precision flag
// plus an optional provider-supplied detailed error, threaded through one
// evaluation.
type Context struct {
	LostPrecision bool
	ProviderError error
	Arena         *arena.Arena
}

func NewContext(ar *arena.Arena) *Context {
	return &Context{Arena: ar}
}
