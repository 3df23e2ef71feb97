package txn

import (
	"context"

	"github.com/kvsql/engine/kv"
)

// View is a Guard-scoped, own-write-aware handle onto one table's
// storage. Operators obtain a View per table rather than talking to
// kv.Storage directly, so every read/write passes through the §4.2.3
// policy checks and the §4.2.4 delete-visibility filter uniformly.
type View struct {
	Table   string
	storage kv.Storage
	guard   *Guard
}

func NewView(table string, storage kv.Storage, guard *Guard) *View {
	return &View{Table: table, storage: storage, guard: guard}
}

func (v *View) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := v.guard.CheckRead(v.Table); err != nil {
		return nil, err
	}
	if v.guard.Writes.IsDeleted(v.Table, key) {
		return nil, kv.ErrNotFound
	}
	return v.storage.Get(ctx, v.guard.Tx, key)
}

func (v *View) Put(ctx context.Context, key, value []byte, opt kv.PutOption) error {
	if err := v.guard.CheckWrite(v.Table); err != nil {
		return err
	}
	if err := v.storage.Put(ctx, v.guard.Tx, key, value, opt); err != nil {
		return err
	}
	v.guard.Writes.MarkWritten(v.Table, key)
	return nil
}

func (v *View) Remove(ctx context.Context, key []byte) error {
	if err := v.guard.CheckWrite(v.Table); err != nil {
		return err
	}
	if err := v.storage.Remove(ctx, v.guard.Tx, key); err != nil {
		return err
	}
	v.guard.Writes.MarkDeleted(v.Table, key)
	return nil
}

// Scan returns a filteredIterator that skips any key this transaction has
// deleted, so a range read never observes a row the same transaction
// removed earlier (§4.2.4).
func (v *View) Scan(ctx context.Context, r kv.Range) (kv.Iterator, error) {
	if err := v.guard.CheckRead(v.Table); err != nil {
		return nil, err
	}
	it, err := v.storage.Scan(ctx, v.guard.Tx, r)
	if err != nil {
		return nil, err
	}
	return &filteredIterator{inner: it, table: v.Table, writes: v.guard.Writes}, nil
}

type filteredIterator struct {
	inner  kv.Iterator
	table  string
	writes *OwnWrites
}

func (f *filteredIterator) Next(ctx context.Context) (bool, error) {
	for {
		ok, err := f.inner.Next(ctx)
		if err != nil || !ok {
			return ok, err
		}
		if !f.writes.IsDeleted(f.table, f.inner.Key()) {
			return true, nil
		}
	}
}

func (f *filteredIterator) Key() []byte   { return f.inner.Key() }
func (f *filteredIterator) Value() []byte { return f.inner.Value() }
func (f *filteredIterator) Close() error  { return f.inner.Close() }
