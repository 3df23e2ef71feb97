package scheduler

import (
	"sync"
	"sync/atomic"
)

// Status is the per-request lifecycle state of §5: a linear progression
// with two side paths, canceling (entered on first fatal error) and
// waiting_cc (entered while a commit is in flight).
type Status int32

const (
	StatusAccepted Status = iota
	StatusSubmitted
	StatusExecuting
	StatusCompleting
	StatusFinishing
	StatusCanceling
	StatusWaitingCC
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusSubmitted:
		return "submitted"
	case StatusExecuting:
		return "executing"
	case StatusCompleting:
		return "completing"
	case StatusFinishing:
		return "finishing"
	case StatusCanceling:
		return "canceling"
	case StatusWaitingCC:
		return "waiting_cc"
	default:
		return "unknown"
	}
}

// Mode records which of the three scheduling strategies of §4.3.5 actually
// ran a request.
type Mode int32

const (
	ModeUnrun Mode = iota
	ModeSerial
	ModeStealing
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeSerial:
		return "serial"
	case ModeStealing:
		return "stealing"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unrun"
	}
}

// Stats accumulates the per-request counters §4.3.5/§4.3.9's
// request_detail exposes: row-level effects plus scheduling-internal
// counters a caller can observe (stealing activity, sticky reassignment,
// which mode actually ran).
type Stats struct {
	Inserted int64
	Merged   int64
	Deleted  int64

	StealCount          int64
	StickyReassignCount int64
	ModeRan             Mode
}

// Detail is request_detail (§4.3.5, §4.3.9, and the §C.14 full-surface
// carry-over): one instance per request, threaded through every task the
// request's steps create.
type Detail struct {
	status int32 // atomic Status

	mu       sync.Mutex
	firstErr error
	stats    Stats
}

func NewDetail() *Detail {
	return &Detail{status: int32(StatusAccepted)}
}

func (d *Detail) Status() Status {
	return Status(atomic.LoadInt32(&d.status))
}

func (d *Detail) SetStatus(s Status) {
	atomic.StoreInt32(&d.status, int32(s))
}

// Cancel enters the canceling state on the first call and records err as
// the request's first error (§7: first error wins, preserved across a
// subsequent abort). Later calls are no-ops, matching the idempotent
// abort requirement of §4.3.5.
func (d *Detail) Cancel(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.firstErr != nil {
		return
	}
	d.firstErr = err
	atomic.StoreInt32(&d.status, int32(StatusCanceling))
}

// IsCanceling reports whether a task observing this detail should check
// its cancel flag and return promptly without emitting further rows.
func (d *Detail) IsCanceling() bool {
	return Status(atomic.LoadInt32(&d.status)) == StatusCanceling
}

func (d *Detail) FirstError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firstErr
}

func (d *Detail) AddInserted(n int64) { atomic.AddInt64(&d.stats.Inserted, n) }
func (d *Detail) AddMerged(n int64)   { atomic.AddInt64(&d.stats.Merged, n) }
func (d *Detail) AddDeleted(n int64)  { atomic.AddInt64(&d.stats.Deleted, n) }

func (d *Detail) addSteal()           { atomic.AddInt64(&d.stats.StealCount, 1) }
func (d *Detail) addStickyReassign()  { atomic.AddInt64(&d.stats.StickyReassignCount, 1) }

func (d *Detail) setModeRan(m Mode) {
	atomic.StoreInt32((*int32)(&d.stats.ModeRan), int32(m))
}

// Stats returns a snapshot of the request's counters.
func (d *Detail) Stats() Stats {
	return Stats{
		Inserted:            atomic.LoadInt64(&d.stats.Inserted),
		Merged:              atomic.LoadInt64(&d.stats.Merged),
		Deleted:             atomic.LoadInt64(&d.stats.Deleted),
		StealCount:          atomic.LoadInt64(&d.stats.StealCount),
		StickyReassignCount: atomic.LoadInt64(&d.stats.StickyReassignCount),
		ModeRan:             Mode(atomic.LoadInt32((*int32)(&d.stats.ModeRan))),
	}
}
