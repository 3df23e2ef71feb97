// Package expr implements the scalar expression evaluator of §4.1: an
// interpreter over the already-compiled expression tree embedded in a
// plan (no parsing — that is out of scope per spec.md §1), including
// arithmetic, comparison, logical, string, LIKE, and the full cast matrix.
package expr

import "github.com/kvsql/engine/value"

// BinOp enumerates the binary scalar operators of §4.1.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

// UnOp enumerates the unary operators of §4.1.
type UnOp uint8

const (
	Plus UnOp = iota
	Neg
	Not
	Length
	IsNull
)

// Node is a scalar expression tree node. The concrete types below are the
// complete inventory the evaluator understands; there is no open
// extension point because the plan is produced by an external compiler
// (spec.md §1) that targets exactly this node set.
type Node interface {
	isNode()
}

// Literal is a frozen constant value baked into the plan (e.g. a column
// default or a bound parameter already resolved to a value.Owned).
type Literal struct {
	Value value.Any
}

// ColumnRef reads one column from the current VariableTable binding.
type ColumnRef struct {
	Index int
}

// Binary applies a BinOp to two operands.
type Binary struct {
	Op          BinOp
	Left, Right Node
}

// Unary applies a UnOp to one operand.
type Unary struct {
	Op      UnOp
	Operand Node
}

// Concat implements the `||` operator (§4.1).
type Concat struct {
	Left, Right Node
}

// Like implements LIKE [ESCAPE] (§4.1).
type Like struct {
	Operand Node
	Pattern Node
	Escape  Node // nil if no ESCAPE clause
}

// Cast implements the cast matrix of §4.1.
type Cast struct {
	Operand Node
	Target  value.FieldType
	Lenient bool
}

func (Literal) isNode() {}
func (ColumnRef) isNode() {}
func (Binary) isNode()   {}
func (Unary) isNode()    {}
func (Concat) isNode()   {}
func (Like) isNode()     {}
func (Cast) isNode()     {}
