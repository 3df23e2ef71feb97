package exec

import (
	"context"

	"github.com/kvsql/engine/shuffle"
	"github.com/kvsql/engine/value"
)

// sourceInput adapts a RowSource to shuffle.Input.
type sourceInput struct{ src RowSource }

func (s sourceInput) Next(ctx context.Context) ([]value.Any, bool, error) {
	row, ok, err := s.src.Next(ctx)
	return []value.Any(row), ok, err
}

// CogroupOperator wraps shuffle.Reader as a RowSource of flattened
// groups: GroupFn receives the merged shuffle.Group and decides how to
// turn it into zero or more output rows (e.g. a nested-loop cross of the
// group's members, for a merge join; or one row per distinct key, for a
// grouped aggregate feeding AggregateOperator).
type CogroupOperator struct {
	Reader  *shuffle.Reader
	GroupFn func(g *shuffle.Group) []Row

	buffered []Row
}

func NewCogroup(sources []RowSource, infos []shuffle.CompareInfo, limit int, groupFn func(g *shuffle.Group) []Row) *CogroupOperator {
	inputs := make([]shuffle.Input, len(sources))
	for i, s := range sources {
		inputs[i] = sourceInput{s}
	}
	return &CogroupOperator{Reader: shuffle.NewReader(inputs, infos, limit), GroupFn: groupFn}
}

func (c *CogroupOperator) Next(ctx context.Context) (Row, bool, error) {
	for len(c.buffered) == 0 {
		g, ok, err := c.Reader.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		c.buffered = c.GroupFn(g)
	}
	row := c.buffered[0]
	c.buffered = c.buffered[1:]
	return row, true, nil
}

func (c *CogroupOperator) Close() error { return nil }
