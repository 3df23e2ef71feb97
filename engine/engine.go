package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kvsql/engine/exec"
	"github.com/kvsql/engine/scheduler"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/write"
)

// Engine owns the worker pool and config an embedder constructs once and
// reuses across requests; it holds no per-request state (§5: the
// transaction and variable tables are per-request, threaded through
// Request instead).
type Engine struct {
	Config Config
	pool   *scheduler.Pool
	log    *zap.Logger
}

// New builds an Engine with its own worker pool sized per cfg. log may be
// nil, in which case a no-op logger is used (matching the teacher's
// convention of threading an explicit *zap.Logger rather than a package
// global).
func New(cfg Config, log *zap.Logger) *Engine {
	cfg.clamp()
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Config: cfg, pool: scheduler.NewPool(cfg.ThreadPoolSize), log: log}
}

// Request is one call's worth of inputs to Execute: the root of an
// already-built operator graph (scan/find/project/filter/join_find/
// cogroup/aggregate/write_existing/write_new/apply composed into a single
// RowSource per §4.3.1 — building that graph from a plan is an external
// planner's job per §1), the transaction guard it must run within, and the
// channel rows stream out on.
type Request struct {
	ID    uuid.UUID
	Root  exec.RowSource
	Guard *txn.Guard
	Out   chan<- exec.Row

	// WriteStats, when non-nil, is the counter every write.Context the
	// operator graph uses was built to share; Execute folds its final
	// values into the returned request_detail stats (§4.3.5: "inserted,
	// merged (updated/upserted), deleted").
	WriteStats *write.Stats

	// Mutating marks a request that must commit (rather than merely read)
	// so Execute knows to run CommitWithRetry instead of leaving the
	// transaction open for the caller to reuse across statements.
	Mutating bool
}

// Execute drives req.Root to completion against req.Guard's transaction,
// streaming rows to req.Out, and returns the request's final statistics.
// It implements the §2 diagram end to end: scheduler dispatch (serial,
// stealing, or hybrid per Config), the write pipeline (already wired into
// req.Root by the caller's graph), and commit/abort against the KVS.
//
// On any error the transaction is aborted (idempotently, per §7) and the
// original error is returned; Execute never swaps a later abort error for
// the one that actually caused the failure.
func (e *Engine) Execute(ctx context.Context, req *Request) (scheduler.Stats, error) {
	detail := scheduler.NewDetail()
	detail.SetStatus(scheduler.StatusSubmitted)
	rctx := &scheduler.RequestContext{Detail: detail}

	task := &scheduler.Task{
		ID:           1,
		TxCapability: scheduler.TxReadsWrites,
		StickyWorker: -1,
		Body: func(ctx context.Context, rctx *scheduler.RequestContext) error {
			em := exec.NewEmit(req.Root, req.Out)
			emitted, err := em.Run(ctx)
			if cerr := em.Close(); err == nil {
				err = cerr
			}
			e.log.Debug("request task finished",
				zap.Stringer("request_id", req.ID),
				zap.Int64("rows_emitted", emitted),
				zap.Error(err))
			return err
		},
	}

	detail.SetStatus(scheduler.StatusExecuting)
	runErr := e.dispatch(ctx, []*scheduler.Task{task}, rctx)

	if runErr != nil {
		detail.Cancel(runErr)
		if req.Guard != nil {
			if abortErr := req.Guard.Abort(ctx); abortErr != nil {
				e.log.Warn("abort after request failure also failed",
					zap.Stringer("request_id", req.ID), zap.Error(abortErr))
			}
		}
		e.log.Warn("request failed", zap.Stringer("request_id", req.ID), zap.Error(runErr))
		return e.finalStats(detail, req), runErr
	}

	detail.SetStatus(scheduler.StatusCompleting)
	if req.Mutating && req.Guard != nil {
		detail.SetStatus(scheduler.StatusWaitingCC)
		if err := req.Guard.CommitWithRetry(ctx, e.Config.CommitTimeout); err != nil {
			detail.Cancel(err)
			e.log.Warn("commit failed", zap.Stringer("request_id", req.ID), zap.Error(err))
			return e.finalStats(detail, req), err
		}
	}
	detail.SetStatus(scheduler.StatusFinishing)
	return e.finalStats(detail, req), nil
}

func (e *Engine) dispatch(ctx context.Context, tasks []*scheduler.Task, rctx *scheduler.RequestContext) error {
	switch {
	case e.Config.EnableHybridScheduler:
		return scheduler.RunHybrid(ctx, tasks, rctx, scheduler.HybridConfig{LightweightJobLevel: e.Config.LightweightJobLevel}, e.pool)
	case e.Config.StealingEnabled:
		return e.pool.RunStealing(ctx, tasks, rctx)
	default:
		return scheduler.RunSerial(ctx, tasks, rctx)
	}
}

// finalStats folds the scheduler's own counters (scheduling-internal plus
// whatever tasks called AddInserted/AddMerged/AddDeleted directly) with
// req.WriteStats, the write-pipeline counter the caller's operator graph
// shared across every write.Context it built.
func (e *Engine) finalStats(detail *scheduler.Detail, req *Request) scheduler.Stats {
	if req.WriteStats != nil {
		ws := req.WriteStats
		detail.AddInserted(ws.Inserted)
		detail.AddMerged(ws.Updated)
		detail.AddDeleted(ws.Deleted)
	}
	return detail.Stats()
}
