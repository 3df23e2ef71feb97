package write

import (
	"context"
	"errors"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/kv"
)

// DeleteRecord removes the row at EncodedPK from the primary index and
// every secondary index entry keyed from NewRow (the row being deleted,
// read by the caller before this call). A missing primary entry is not an
// error: deleting an already-absent key is a silent no-op, matching the
// own-write visibility rule that a delete of a deleted row is idempotent.
func DeleteRecord(ctx context.Context, wc *Context) error {
	primaryView := wc.Views[wc.Primary.StorageName]
	if primaryView == nil {
		return errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no view bound for primary storage %q", wc.Primary.StorageName)
	}
	if err := primaryView.Remove(ctx, wc.EncodedPK); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}
	for _, sec := range wc.Secondaries {
		secView := wc.Views[sec.StorageName]
		if secView == nil {
			return errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no view bound for secondary storage %q", sec.StorageName)
		}
		key, err := encodeSecondaryKey(sec, wc.NewRow, wc.EncodedPK)
		if err != nil {
			return err
		}
		if err := secView.Remove(ctx, key); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return err
		}
	}
	wc.Stats.Deleted++
	return nil
}
