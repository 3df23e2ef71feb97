package scheduler

import (
	"context"
	"fmt"

	"github.com/go-stack/stack"
)

// TxCapability tags whether a task may touch the transaction, per
// §4.3.5's task identity ("a back-pointer to its producing step, and a
// transaction-capability tag").
type TxCapability uint8

const (
	TxNone TxCapability = iota
	TxReadsWrites
)

// Step is the producer of tasks in the operator graph, per §4.3.5:
// CreateTasks builds the step's ordinary task set; CreatePretask builds a
// single task for one subordinate input (e.g. a join's build side).
type Step interface {
	CreateTasks(rctx *RequestContext) ([]*Task, error)
	CreatePretask(rctx *RequestContext, subInputIndex int) (*Task, error)
}

// Task is the scheduler's unit of work. Run performs the task's actual
// operator work and must be cooperative: it checks rctx.Detail.IsCanceling
// at its own yield points (mirroring exec.ScanOperator.ShouldYield) rather
// than blocking indefinitely.
type Task struct {
	ID           uint64
	Step         Step
	TxCapability TxCapability

	// StickyWorker is the preferred worker index for this task, or -1 for
	// no preference. Standard stealing honors this for up to the pool's
	// sticky retry limit (DefaultStickyRetryLimit) reassignments before
	// letting a thief keep it.
	StickyWorker int

	// Body is the task's actual operator work. Run wraps it with panic
	// recovery so a single task's bug cannot take down the whole worker
	// pool; the recovered value is reported as an ordinary error carrying
	// the panicking goroutine's stack (§C.14-adjacent diagnostics, domain
	// stack wiring of go-stack).
	Body func(ctx context.Context, rctx *RequestContext) error

	stickyRetriesLeft int
}

// Run invokes Body, converting a panic into an error annotated with the
// call stack captured at the recover point rather than letting it
// propagate and kill the worker goroutine.
func (t *Task) Run(ctx context.Context, rctx *RequestContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler: task %d panicked: %v\n%s", t.ID, r, stack.Trace().TrimRuntime())
		}
	}()
	return t.Body(ctx, rctx)
}
