package write

import (
	"context"
	"testing"

	"github.com/kvsql/engine/arena"
	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/value"
)

type constVars struct{}

func (constVars) Column(int) value.Any { return value.Empty() }

func TestMapEvalErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		kind value.ErrorKind
		want error
	}{
		{"length_overflow", value.ErrKindLengthOverflow, errtax.ErrValueTooLong},
		{"unsupported", value.ErrKindUnsupported, errtax.ErrUnsupportedRuntimeFeature},
		{"overflow_collapses_to_value_evaluation", value.ErrKindOverflow, errtax.ErrValueEvaluation},
		{"divide_by_zero_collapses_to_value_evaluation", value.ErrKindDivideByZero, errtax.ErrValueEvaluation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MapEvalError(value.NewEvalError(c.kind, "x"))
			if !errtax.Is(got, c.want) {
				t.Errorf("MapEvalError(%v) = %v, want wrapping %v", c.kind, got, c.want)
			}
		})
	}
}

func TestMapEvalErrorNil(t *testing.T) {
	got := MapEvalError(nil)
	if !errtax.Is(got, errtax.ErrValueEvaluation) {
		t.Errorf("MapEvalError(nil) = %v, want ErrValueEvaluation", got)
	}
}

func TestMaterializeRowAppliesDefaults(t *testing.T) {
	ectx := expr.NewContext(arena.New())
	ev := expr.Evaluator{}
	descriptors := []FieldDescriptor{
		{TargetType: value.FieldType{Kind: value.KindInt4}, Nullable: false, Default: DefaultPolicy{Kind: DefaultImmediate, Immediate: value.NewInt(value.KindInt4, 7)}},
		{TargetType: value.FieldType{Kind: value.KindCharacter}, Nullable: true},
	}
	tuple := []TupleElement{
		{}, // absent: takes DefaultImmediate
		{}, // absent, nullable: NULL
	}
	row, err := MaterializeRow(context.Background(), ectx, ev, constVars{}, descriptors, tuple, nil, nil, nil)
	if err != nil {
		t.Fatalf("MaterializeRow: %v", err)
	}
	if i, ok := row[0].AsInt(); !ok || i != 7 {
		t.Errorf("row[0] = %v, want 7", row[0])
	}
	if !row[1].IsEmpty() {
		t.Errorf("row[1] = %v, want NULL", row[1])
	}
}

func TestMaterializeRowMissingRequiredNoDefaultIsNotNullViolation(t *testing.T) {
	ectx := expr.NewContext(arena.New())
	ev := expr.Evaluator{}
	descriptors := []FieldDescriptor{
		{TargetType: value.FieldType{Kind: value.KindInt4}, Nullable: false},
	}
	_, err := MaterializeRow(context.Background(), ectx, ev, constVars{}, descriptors, nil, nil, nil, nil)
	if !errtax.Is(err, errtax.ErrNotNullConstraintViolation) {
		t.Errorf("got %v, want ErrNotNullConstraintViolation", err)
	}
}

func TestMaterializeRowEvaluatedValueIsCoerced(t *testing.T) {
	ectx := expr.NewContext(arena.New())
	ev := expr.Evaluator{}
	descriptors := []FieldDescriptor{
		{TargetType: value.FieldType{Kind: value.KindInt4}},
	}
	tuple := []TupleElement{
		{Present: true, Expr: expr.Literal{Value: value.NewInt(value.KindInt8, 42)}},
	}
	row, err := MaterializeRow(context.Background(), ectx, ev, constVars{}, descriptors, tuple, nil, nil, nil)
	if err != nil {
		t.Fatalf("MaterializeRow: %v", err)
	}
	if row[0].Kind() != value.KindInt4 {
		t.Errorf("row[0].Kind() = %v, want int4 (assignment-converted)", row[0].Kind())
	}
}
