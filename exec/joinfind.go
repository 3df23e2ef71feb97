package exec

import (
	"context"
	"errors"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/kvcodec"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/value"
)

// JoinKind selects join_find's outer-join behavior.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
	JoinFullOuter
)

// JoinFindOperator implements join_find (§4.3.3): for each left row,
// encode the join key from BuildKeyExprs, probe BuildIndex, and emit the
// combined row. A non-equi Condition, when present, filters a probe hit
// as if it had not matched — except for FULL OUTER, where the left row
// still emits with the right side NULLed, and the right row is still
// eligible to be emitted unmatched at end-of-stream.
type JoinFindOperator struct {
	Left          RowSource
	BuildView     *txn.View
	BuildIndex    *meta.Index
	BuildKeyExprs []expr.Node // evaluated against the left row
	Condition     expr.Node   // optional non-equi filter; nil means none
	Kind          JoinKind
	LeftWidth     int
	RightWidth    int
	Eval          expr.Evaluator
	Ctx           *expr.Context

	// matched tracks, for FULL OUTER, which right-side primary keys (by
	// a caller-assigned dense id) have been returned by at least one
	// probe hit, so the unmatched remainder can be emitted once the left
	// stream is exhausted.
	matched    *roaring.Bitmap
	rightKeyID func(encodedKey []byte) uint32
	allRight   func(ctx context.Context) (RowSource, error)

	pending     []Row
	pendingOpen bool
	pendingPos  int
	leftDone    bool
}

func NewJoinFind(left RowSource, view *txn.View, idx *meta.Index, keyExprs []expr.Node, cond expr.Node, kind JoinKind, leftWidth, rightWidth int, ev expr.Evaluator, ectx *expr.Context) *JoinFindOperator {
	j := &JoinFindOperator{
		Left: left, BuildView: view, BuildIndex: idx, BuildKeyExprs: keyExprs,
		Condition: cond, Kind: kind, LeftWidth: leftWidth, RightWidth: rightWidth,
		Eval: ev, Ctx: ectx,
	}
	if kind == JoinFullOuter {
		j.matched = roaring.New()
	}
	return j
}

// WithFullOuterSupport equips the operator to emit unmatched right rows at
// end-of-stream: rightKeyID assigns a dense id to an encoded right key
// (stable for the lifetime of one join), and allRight opens a fresh scan
// of the whole build index.
func (j *JoinFindOperator) WithFullOuterSupport(rightKeyID func([]byte) uint32, allRight func(context.Context) (RowSource, error)) {
	j.rightKeyID = rightKeyID
	j.allRight = allRight
}

func (j *JoinFindOperator) Next(ctx context.Context) (Row, bool, error) {
	for !j.leftDone {
		leftRow, ok, err := j.Left.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			j.leftDone = true
			break
		}

		key, err := j.encodeKey(leftRow)
		if err != nil {
			return nil, false, err
		}
		val, found, err := j.probe(ctx, key)
		if err != nil {
			return nil, false, err
		}

		var rightRow Row
		if found {
			rightRow, err = decodeRow(j.BuildIndex, key, val)
			if err != nil {
				return nil, false, err
			}
			if !j.passesCondition(leftRow, rightRow) {
				found = false
			}
		}

		if found {
			if j.matched != nil {
				j.matched.Add(j.rightKeyID(key))
			}
			return concatRows(leftRow, rightRow), true, nil
		}
		if j.Kind == JoinInner {
			continue
		}
		return concatRows(leftRow, emptyRow(j.RightWidth)), true, nil
	}

	return j.nextUnmatchedRight(ctx)
}

func concatRows(left, right Row) Row {
	out := make(Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}

func (j *JoinFindOperator) encodeKey(leftRow Row) ([]byte, error) {
	vars := rowVars{leftRow}
	var buf []byte
	for i, e := range j.BuildKeyExprs {
		v := j.Eval.Eval(j.Ctx, e, vars)
		if v.IsError() {
			return nil, v.Error()
		}
		if v.IsEmpty() {
			// A NULL join key never matches a non-null probe (§4.3.3).
			return nil, nil
		}
		info := j.BuildIndex.Fields[i]
		var err error
		buf, err = kvcodec.EncodeField(buf, v, info)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (j *JoinFindOperator) probe(ctx context.Context, key []byte) (val []byte, found bool, err error) {
	if key == nil {
		return nil, false, nil
	}
	v, err := j.BuildView.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (j *JoinFindOperator) passesCondition(left, right Row) bool {
	if j.Condition == nil {
		return true
	}
	v := j.Eval.Eval(j.Ctx, j.Condition, rowVars{concatRows(left, right)})
	b, ok := v.AsBool()
	return ok && b
}

// nextUnmatchedRight lazily scans the whole build index once the left
// stream is exhausted, emitting (NULLs for left columns || right row) for
// every right row whose key never appeared in matched.
func (j *JoinFindOperator) nextUnmatchedRight(ctx context.Context) (Row, bool, error) {
	if j.Kind != JoinFullOuter || j.allRight == nil {
		return nil, false, nil
	}
	if !j.pendingOpen {
		j.pendingOpen = true
		src, err := j.allRight(ctx)
		if err != nil {
			return nil, false, err
		}
		defer src.Close()
		for {
			row, ok, err := src.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			j.pending = append(j.pending, row)
		}
	}
	for j.pendingPos < len(j.pending) {
		row := j.pending[j.pendingPos]
		j.pendingPos++
		key := encodeIndexKeyFromRow(j.BuildIndex, row)
		if j.matched.Contains(j.rightKeyID(key)) {
			continue
		}
		return concatRows(emptyRow(j.LeftWidth), row), true, nil
	}
	return nil, false, nil
}

func encodeIndexKeyFromRow(idx *meta.Index, row Row) []byte {
	var buf []byte
	for _, f := range idx.Fields {
		buf, _ = kvcodec.EncodeField(buf, row[f.RowColumn], f)
	}
	return buf
}

func emptyRow(width int) Row {
	out := make(Row, width)
	for i := range out {
		out[i] = value.Empty()
	}
	return out
}

func (j *JoinFindOperator) Close() error { return j.Left.Close() }
