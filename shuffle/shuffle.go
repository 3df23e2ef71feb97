// Package shuffle implements the cogroup merge reader of §4.4: a
// priority-queue merge over N already-sorted inputs that coalesces rows
// sharing the same key, however many of the N inputs contribute them.
package shuffle

import (
	"context"

	"github.com/kvsql/engine/expr"
	"github.com/kvsql/engine/value"
)

// FieldOrder names one key column (by its position in an input row) and
// its sort direction.
type FieldOrder struct {
	Column     int
	Descending bool
}

// CompareInfo describes one input's key schema: the columns that form
// the group key and their ordering. All inputs of one cogroup must share
// a compatible key schema — identical field count, kinds, and ordering;
// nullability may differ.
type CompareInfo struct {
	Fields []FieldOrder
}

// Input is one sorted stream feeding the merge.
type Input interface {
	Next(ctx context.Context) (row []value.Any, ok bool, err error)
}

// Group is one coalesced key's contribution: Key is the shared key
// values, and Members[i] holds every row input i contributed to this
// group (empty if input i had no row with this key).
type Group struct {
	Key     []value.Any
	Members [][][]value.Any
}

// Reader merges Inputs, each described by the matching entry of Infos, in
// ascending key order. Limit, if > 0, caps the total number of members one
// group carries across all inputs (§4.4): inputs fill the quota in index
// order, and the key's remaining rows are read and dropped, so a key never
// yields a second group.
type Reader struct {
	inputs []Input
	infos  []CompareInfo
	limit  int

	peeked  [][]value.Any
	hasPeek []bool
	done    []bool
}

func NewReader(inputs []Input, infos []CompareInfo, limit int) *Reader {
	return &Reader{
		inputs:  inputs,
		infos:   infos,
		limit:   limit,
		peeked:  make([][]value.Any, len(inputs)),
		hasPeek: make([]bool, len(inputs)),
		done:    make([]bool, len(inputs)),
	}
}

// Next returns the next group in ascending key order, or ok=false once
// every input is exhausted. An input declared with no rows at all simply
// never contributes, per §4.4 ("an input declared empty does not block
// group formation").
func (r *Reader) Next(ctx context.Context) (*Group, bool, error) {
	if err := r.fillPeeks(ctx); err != nil {
		return nil, false, err
	}
	idx := r.minIndex()
	if idx < 0 {
		return nil, false, nil
	}
	minKey := r.keyOf(idx, r.peeked[idx])

	group := &Group{Key: minKey, Members: make([][][]value.Any, len(r.inputs))}
	count := 0
	for i := range r.inputs {
		for {
			if !r.hasPeek[i] {
				if err := r.fillPeek(ctx, i); err != nil {
					return nil, false, err
				}
			}
			if !r.hasPeek[i] {
				break
			}
			k := r.keyOf(i, r.peeked[i])
			if !keysEqual(k, minKey) {
				break
			}
			if r.limit <= 0 || count < r.limit {
				group.Members[i] = append(group.Members[i], r.peeked[i])
				count++
			}
			r.hasPeek[i] = false
		}
	}
	return group, true, nil
}

func (r *Reader) fillPeeks(ctx context.Context) error {
	for i := range r.inputs {
		if err := r.fillPeek(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) fillPeek(ctx context.Context, i int) error {
	if r.hasPeek[i] || r.done[i] {
		return nil
	}
	row, ok, err := r.inputs[i].Next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		r.done[i] = true
		return nil
	}
	r.peeked[i] = row
	r.hasPeek[i] = true
	return nil
}

func (r *Reader) minIndex() int {
	best := -1
	var bestKey []value.Any
	for i := range r.inputs {
		if !r.hasPeek[i] {
			continue
		}
		k := r.keyOf(i, r.peeked[i])
		if best < 0 || r.less(k, bestKey) {
			best = i
			bestKey = k
		}
	}
	return best
}

func (r *Reader) keyOf(input int, row []value.Any) []value.Any {
	info := r.infos[input]
	key := make([]value.Any, len(info.Fields))
	for i, f := range info.Fields {
		key[i] = row[f.Column]
	}
	return key
}

// less compares two key tuples using the first input's field ordering
// (a compatible key schema guarantees every input's ordering agrees).
func (r *Reader) less(a, b []value.Any) bool {
	info := r.infos[0]
	for i := range a {
		cmp, ok := expr.Compare(a[i], b[i])
		if !ok || cmp == 0 {
			continue
		}
		if info.Fields[i].Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func keysEqual(a, b []value.Any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		cmp, ok := expr.Compare(a[i], b[i])
		if !ok || cmp != 0 {
			return false
		}
	}
	return true
}
