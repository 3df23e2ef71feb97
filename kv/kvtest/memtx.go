package kvtest

import (
	"context"
	"sync/atomic"

	"github.com/kvsql/engine/kv"
)

type memTx struct {
	params kv.BeginParams
	active int32 // 1 while active
}

func newMemTx(params kv.BeginParams) *memTx {
	return &memTx{params: params, active: 1}
}

func (t *memTx) Mode() kv.Mode { return t.params.Mode }

func (t *memTx) Commit(ctx context.Context) error {
	atomic.StoreInt32(&t.active, 0)
	return nil
}

// Abort is idempotent: calling it on an already-inactive transaction is a
// no-op and never errors (§7 "Abort idempotence").
func (t *memTx) Abort(ctx context.Context) error {
	atomic.StoreInt32(&t.active, 0)
	return nil
}

func (t *memTx) IsActive() bool { return atomic.LoadInt32(&t.active) == 1 }
