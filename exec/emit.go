package exec

import "context"

// EmitOperator drains Source and forwards each row on Out, the external
// writer of §4.3.1's emit operator. It blocks on the channel send (the
// caller is expected to size Out, or read concurrently) and respects
// context cancellation.
type EmitOperator struct {
	Source RowSource
	Out    chan<- Row

	emitted int64
}

func NewEmit(src RowSource, out chan<- Row) *EmitOperator {
	return &EmitOperator{Source: src, Out: out}
}

// Run drives Source to completion, emitting every row. It returns the
// number of rows emitted.
func (e *EmitOperator) Run(ctx context.Context) (int64, error) {
	for {
		row, ok, err := e.Source.Next(ctx)
		if err != nil {
			return e.emitted, err
		}
		if !ok {
			return e.emitted, nil
		}
		select {
		case e.Out <- row:
			e.emitted++
		case <-ctx.Done():
			return e.emitted, ctx.Err()
		}
	}
}

func (e *EmitOperator) Close() error { return e.Source.Close() }
