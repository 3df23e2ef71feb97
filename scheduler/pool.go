// Package scheduler implements the task dispatch model of §4.3.5/§5: a
// worker pool with standard stealing, a serial mode for trivially small
// requests, and a hybrid mode that escalates from serial to stealing once
// a job exceeds a configured lightweight threshold. Built on
// golang.org/x/sync/errgroup, in the teacher's own idiom of layering a
// custom dispatch structure (here, the stealing deque) over errgroup for
// the concurrency plumbing rather than hand-rolling goroutine bookkeeping.
package scheduler

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultPoolSize returns min(0.8 × physical cores, 32), the unconfigured
// worker count of §4.3.5.
func DefaultPoolSize() int {
	n := int(float64(runtime.NumCPU()) * 0.8)
	if n < 1 {
		n = 1
	}
	if n > 32 {
		n = 32
	}
	return n
}

// DefaultStickyRetryLimit bounds how many times a thief defers to a task's
// preferred worker before simply running it itself (§4.3.5: "stickiness
// may be configured so that tasks preferring a worker are retried locally
// a bounded number of times before being re-queued").
const DefaultStickyRetryLimit = 2

// Pool is a fixed-size set of workers, each with its own stealing deque.
type Pool struct {
	deques          []*deque
	stickyRetryLimit int
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultPoolSize()
	}
	p := &Pool{deques: make([]*deque, size), stickyRetryLimit: DefaultStickyRetryLimit}
	for i := range p.deques {
		p.deques[i] = &deque{}
	}
	return p
}

func (p *Pool) Size() int { return len(p.deques) }

// RunStealing dispatches tasks across the pool's workers via standard
// stealing (§4.3.5). Tasks with a StickyWorker preference are seeded onto
// that worker's own deque; all others are distributed round-robin. The
// first task error cancels rctx.Detail, and every worker observes the
// cancellation at its next dispatch loop iteration and stops taking new
// tasks (in-flight tasks are expected to check rctx.Detail.IsCanceling at
// their own yield points).
func (p *Pool) RunStealing(ctx context.Context, tasks []*Task, rctx *RequestContext) error {
	if len(tasks) == 0 {
		rctx.Detail.setModeRan(ModeStealing)
		return nil
	}
	n := len(p.deques)
	for i, t := range tasks {
		t.stickyRetriesLeft = p.stickyRetryLimit
		owner := t.StickyWorker
		if owner < 0 || owner >= n {
			owner = i % n
			t.StickyWorker = owner
		}
		p.deques[owner].pushBack(t)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < n; w++ {
		w := w
		g.Go(func() error {
			return p.runWorker(gctx, w, rctx)
		})
	}
	err := g.Wait()
	rctx.Detail.setModeRan(ModeStealing)
	if err != nil {
		rctx.Detail.Cancel(err)
		return err
	}
	if fe := rctx.Detail.FirstError(); fe != nil {
		return fe
	}
	return nil
}

func (p *Pool) runWorker(ctx context.Context, id int, rctx *RequestContext) error {
	own := p.deques[id]
	for {
		if rctx.Detail.IsCanceling() {
			return nil
		}
		t := own.popBack()
		if t == nil {
			t = p.steal(id, rctx)
		}
		if t == nil {
			if p.allEmpty() {
				return nil
			}
			continue
		}
		if t.StickyWorker != id && t.stickyRetriesLeft > 0 {
			t.stickyRetriesLeft--
			rctx.Detail.addStickyReassign()
			p.deques[t.StickyWorker].pushFront(t)
			continue
		}
		if t.StickyWorker != id {
			rctx.Detail.addSteal()
		}
		if err := t.Run(ctx, rctx); err != nil {
			rctx.Detail.Cancel(err)
			return err
		}
	}
}

func (p *Pool) steal(from int, rctx *RequestContext) *Task {
	n := len(p.deques)
	for i := 1; i < n; i++ {
		victim := (from + i) % n
		if t := p.deques[victim].stealFront(); t != nil {
			return t
		}
	}
	return nil
}

func (p *Pool) allEmpty() bool {
	for _, d := range p.deques {
		if d.len() > 0 {
			return false
		}
	}
	return true
}

// RunSerial runs every task on the calling goroutine in order, per
// §4.3.5's serial mode for trivially small requests.
func RunSerial(ctx context.Context, tasks []*Task, rctx *RequestContext) error {
	rctx.Detail.setModeRan(ModeSerial)
	for _, t := range tasks {
		if rctx.Detail.IsCanceling() {
			return rctx.Detail.FirstError()
		}
		if err := t.Run(ctx, rctx); err != nil {
			rctx.Detail.Cancel(err)
			return err
		}
	}
	return nil
}

// HybridConfig configures when RunHybrid escalates from serial to
// stealing, per §4.3.5's "lightweight" threshold (number of tasks).
type HybridConfig struct {
	// LightweightJobLevel is the task-count threshold: a job at or below
	// this size runs entirely serially.
	LightweightJobLevel int
}

// RunHybrid starts serial and escalates to the pool's stealing dispatch
// once the task count exceeds cfg.LightweightJobLevel (§4.3.5). The
// already-completed serial prefix is not re-run; only the remaining tasks
// move to the pool.
func RunHybrid(ctx context.Context, tasks []*Task, rctx *RequestContext, cfg HybridConfig, pool *Pool) error {
	if len(tasks) <= cfg.LightweightJobLevel {
		return RunSerial(ctx, tasks, rctx)
	}
	for i := 0; i < cfg.LightweightJobLevel; i++ {
		if rctx.Detail.IsCanceling() {
			rctx.Detail.setModeRan(ModeHybrid)
			return rctx.Detail.FirstError()
		}
		if err := tasks[i].Run(ctx, rctx); err != nil {
			rctx.Detail.Cancel(err)
			rctx.Detail.setModeRan(ModeHybrid)
			return err
		}
	}
	err := pool.RunStealing(ctx, tasks[cfg.LightweightJobLevel:], rctx)
	rctx.Detail.setModeRan(ModeHybrid)
	return err
}
