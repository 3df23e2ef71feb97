// Package txn implements the transaction-mode policy of §4.2.3/§4.2.4:
// short (OCC) vs. long (LTX, with pre-declared write-preserve and read
// areas) transactions, the own-write delete visibility invariant, and
// commit retry for OCC serialization failures.
package txn

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/kv"
)

// Guard enforces the §4.2.3 LTX policy on top of an open kv.Transaction:
// writes outside write_preserve fail immediately and deactivate the
// transaction; reads outside the effective inclusive area (or inside the
// exclusive area) fail. Short transactions are unrestricted.
type Guard struct {
	Tx     kv.Transaction
	Writes *OwnWrites

	mode Mode

	writePreserve map[string]bool
	readIncl      map[string]bool
	readInclAll   bool
	readExcl      map[string]bool

	inactive int32
	firstErr atomic.Value
}

// Mode mirrors kv.Mode under the txn package's own name for readability.
type Mode = kv.Mode

const (
	Short = kv.ModeShort
	Long  = kv.ModeLong
)

// NewGuard builds a Guard from begin parameters, applying the dedup and
// precedence rules of §6: duplicate entries are deduped, a table named in
// both inclusive and exclusive areas wins as exclusive, and every
// write_preserve table is implicitly added to the inclusive read area.
func NewGuard(tx kv.Transaction, params kv.BeginParams) (*Guard, error) {
	if params.Mode == Short && len(params.WritePreserve) > 0 {
		return nil, errtax.New(errtax.ErrTypeAnalyze, "short transaction must not declare write_preserve")
	}

	wp := toSet(params.WritePreserve)
	excl := toSet(params.ReadAreaExclusive)
	incl := toSet(params.ReadAreaInclusive)
	inclAll := len(params.ReadAreaInclusive) == 0

	for t := range wp {
		incl[t] = true
	}
	for t := range excl {
		delete(incl, t) // exclusive wins over inclusive
	}

	return &Guard{
		Tx:            tx,
		Writes:        NewOwnWrites(),
		mode:          params.Mode,
		writePreserve: wp,
		readIncl:      incl,
		readInclAll:   inclAll,
		readExcl:      excl,
	}, nil
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// CheckWrite enforces ltx_write_operation_without_write_preserve (§4.2.3).
// A failed check deactivates the transaction so later operations observe
// the original error (§7 propagation policy), not a fresh one.
func (g *Guard) CheckWrite(table string) error {
	if err := g.firstFailure(); err != nil {
		return err
	}
	if g.mode == Short {
		return nil
	}
	if !g.writePreserve[table] {
		err := errtax.New(errtax.ErrLTXWriteWithoutWritePreserve, "table %q is not in write_preserve", table)
		g.fail(err)
		return err
	}
	return nil
}

// CheckRead enforces read_operation_on_restricted_read_area (§4.2.3).
func (g *Guard) CheckRead(table string) error {
	if err := g.firstFailure(); err != nil {
		return err
	}
	if g.mode == Short {
		return nil
	}
	if g.readExcl[table] {
		return errtax.New(errtax.ErrReadOperationOnRestrictedArea, "table %q is excluded from the read area", table)
	}
	if !g.readInclAll && !g.readIncl[table] {
		return errtax.New(errtax.ErrReadOperationOnRestrictedArea, "table %q is outside the inclusive read area", table)
	}
	return nil
}

func (g *Guard) fail(err error) {
	if atomic.CompareAndSwapInt32(&g.inactive, 0, 1) {
		g.firstErr.Store(err)
	}
}

func (g *Guard) firstFailure() error {
	if atomic.LoadInt32(&g.inactive) == 0 {
		return nil
	}
	if err, ok := g.firstErr.Load().(error); ok {
		return err
	}
	return errtax.New(errtax.ErrInactiveTransaction, "")
}

// IsActive reports whether the guard has not observed a policy violation
// and the underlying transaction is still active.
func (g *Guard) IsActive() bool {
	return atomic.LoadInt32(&g.inactive) == 0 && g.Tx.IsActive()
}

// Abort aborts the underlying transaction. Idempotent: a second call on an
// already-inactive transaction is a no-op (§7).
func (g *Guard) Abort(ctx context.Context) error {
	if !g.Tx.IsActive() {
		return nil
	}
	return g.Tx.Abort(ctx)
}

// CommitWithRetry commits a short transaction, retrying on
// err_serialization_failure with exponential backoff (domain-stack wiring
// of cenkalti/backoff/v4). Long transactions commit without retry: a
// pre-declared write/read area already resolved its conflicts at begin
// time, so a serialization failure there is not transient.
func (g *Guard) CommitWithRetry(ctx context.Context, maxElapsed time.Duration) error {
	if g.mode == Long {
		return g.Tx.Commit(ctx)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return backoff.Retry(func() error {
		err := g.Tx.Commit(ctx)
		if err == nil {
			return nil
		}
		if errtax.Is(err, errtax.ErrSerializationFailure) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}
