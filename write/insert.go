package write

import (
	"bytes"
	"context"
	"errors"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/meta"
	"github.com/kvsql/engine/txn"
	"github.com/kvsql/engine/value"
)

// Context is one call's worth of inputs to InsertNewRecord: the target
// primary and secondary indexes, the views to write through, the encoded
// primary key and value for the new row, and the full new row (for
// secondary re-encoding).
type Context struct {
	Kind        Kind
	Primary     *meta.PrimaryTarget
	Secondaries []*meta.SecondaryTarget
	Views       map[string]*txn.View // storage name -> view

	// TryInsertPrimaryFirst mirrors the same-named engine config option:
	// for insert_overwrite with secondaries, attempt the primary insert
	// before touching secondaries so the common non-colliding case avoids
	// a redundant point read.
	TryInsertPrimaryFirst bool

	EncodedPK    []byte
	EncodedValue []byte
	NewRow       []value.Any

	// OldRow is the pre-image of the row being updated, supplied by the
	// caller for Kind == Update (write_existing already holds it from the
	// read that located this row). Unused for the other kinds.
	OldRow []value.Any

	Stats *Stats
}

// InsertNewRecord performs the insert_new_record / upsert-fast-path
// algorithm: write the primary index entry per Kind's duplicate-key
// policy, and keep every secondary index's (key_image, pk) entries in
// sync with the primary row.
func InsertNewRecord(ctx context.Context, wc *Context) error {
	primaryView := wc.Views[wc.Primary.StorageName]
	if primaryView == nil {
		return errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no view bound for primary storage %q", wc.Primary.StorageName)
	}

	if wc.Kind == InsertOverwrite && len(wc.Secondaries) > 0 {
		primaryAlreadyExists, primaryWritten, err := probeOrInsertPrimary(ctx, wc, primaryView)
		if err != nil {
			return err
		}

		var oldRow []value.Any
		if primaryAlreadyExists {
			oldRow, err = fetchOldRow(ctx, wc, primaryView)
			if err != nil {
				return err
			}
		}
		if err := putSecondaries(ctx, wc, oldRow); err != nil {
			return err
		}
		// primaryWritten is only true when the fast-path Create above
		// actually landed a fresh row; every other case (fast path off, or
		// fast path on but the key already existed) still needs the
		// fallthrough write — the pseudocode's "secondaries already
		// handled; return ok" describes the fast-path-succeeded case only.
		if !primaryWritten {
			if err := primaryView.Put(ctx, wc.EncodedPK, wc.EncodedValue, kv.CreateOrUpdate); err != nil {
				return err
			}
		}
		if primaryAlreadyExists {
			wc.Stats.Updated++
		} else {
			wc.Stats.Inserted++
		}
		return nil
	}

	opt := kv.Create
	if wc.Kind == InsertOverwrite || wc.Kind == Update {
		opt = kv.CreateOrUpdate
	}
	err := primaryView.Put(ctx, wc.EncodedPK, wc.EncodedValue, opt)
	if err != nil {
		if errors.Is(err, kv.ErrKeyExists) {
			switch wc.Kind {
			case Insert:
				return errtax.New(errtax.ErrUniqueConstraintViolation, "duplicate primary key")
			case InsertSkip:
				wc.Stats.Skipped++
				return nil
			}
		}
		return err
	}

	if wc.Kind == Update {
		wc.Stats.Updated++
		return putSecondaries(ctx, wc, wc.OldRow)
	}
	wc.Stats.Inserted++
	return putSecondaries(ctx, wc, nil)
}

// probeOrInsertPrimary either attempts the primary insert directly
// (TryInsertPrimaryFirst) or does a plain point-read probe. It reports
// whether a row already occupied the key (existed) and whether that call
// itself already wrote the new primary value (written) — a plain probe
// never writes, so the caller must still Put the row itself; only a
// successful fast-path Create counts as written, mirroring the C++
// original's primary_already_exists, which starts true and is only set to
// false by an actual write attempt.
func probeOrInsertPrimary(ctx context.Context, wc *Context, primaryView *txn.View) (existed bool, written bool, err error) {
	if wc.TryInsertPrimaryFirst {
		err := primaryView.Put(ctx, wc.EncodedPK, wc.EncodedValue, kv.Create)
		switch {
		case err == nil:
			return false, true, nil
		case errors.Is(err, kv.ErrKeyExists):
			return true, false, nil
		default:
			return false, false, err
		}
	}
	_, err = primaryView.Get(ctx, wc.EncodedPK)
	switch {
	case err == nil:
		return true, false, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, false, nil
	default:
		return false, false, err
	}
}

// fetchOldRow reads back the row currently stored at EncodedPK and
// reassembles it into a full-width row (key columns plus value columns,
// each placed at its declared RowColumn) so secondary keys can be
// re-encoded from it exactly as they were from the live row.
func fetchOldRow(ctx context.Context, wc *Context, primaryView *txn.View) ([]value.Any, error) {
	oldValueBytes, err := primaryView.Get(ctx, wc.EncodedPK)
	if err != nil {
		return nil, err
	}
	keyValues, err := DecodeTuple(wc.EncodedPK, wc.Primary.Index.Fields)
	if err != nil {
		return nil, err
	}
	valueValues, err := DecodeTuple(oldValueBytes, wc.Primary.Index.ValueFields)
	if err != nil {
		return nil, err
	}
	return AssembleRow(wc.Primary.Index, keyValues, valueValues), nil
}

// AssembleRow places decoded key and value columns at their RowColumn
// positions in a single full-width row. Exported so callers outside this
// package (the scan/find operators) can build the same row shape directly
// from a raw (key, value) pair read off the KVS.
func AssembleRow(idx *meta.Index, keyValues, valueValues []value.Any) []value.Any {
	width := 0
	for _, f := range idx.Fields {
		if f.RowColumn+1 > width {
			width = f.RowColumn + 1
		}
	}
	for _, f := range idx.ValueFields {
		if f.RowColumn+1 > width {
			width = f.RowColumn + 1
		}
	}
	row := make([]value.Any, width)
	for i, f := range idx.Fields {
		row[f.RowColumn] = keyValues[i]
	}
	for i, f := range idx.ValueFields {
		row[f.RowColumn] = valueValues[i]
	}
	return row
}

// putSecondaries places the new secondary entry for every secondary
// index, removing the corresponding old entry first when its key image
// changed from oldRow (oldRow is nil when there was no previous row).
func putSecondaries(ctx context.Context, wc *Context, oldRow []value.Any) error {
	for _, sec := range wc.Secondaries {
		secView := wc.Views[sec.StorageName]
		if secView == nil {
			return errtax.New(errtax.ErrUnsupportedRuntimeFeature, "no view bound for secondary storage %q", sec.StorageName)
		}
		newKey, err := encodeSecondaryKey(sec, wc.NewRow, wc.EncodedPK)
		if err != nil {
			return err
		}
		if oldRow != nil {
			oldKey, err := encodeSecondaryKey(sec, oldRow, wc.EncodedPK)
			if err != nil {
				return err
			}
			if !bytes.Equal(oldKey, newKey) {
				if err := secView.Remove(ctx, oldKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
					return err
				}
			}
		}
		if err := secView.Put(ctx, newKey, nil, kv.CreateOrUpdate); err != nil {
			return err
		}
	}
	return nil
}

// encodeSecondaryKey builds (secondary_columns || primary_key).
func encodeSecondaryKey(sec *meta.SecondaryTarget, row []value.Any, pk []byte) ([]byte, error) {
	buf, err := encodeIndexKey(sec.Index, row)
	if err != nil {
		return nil, err
	}
	buf = append(buf, pk...)
	return buf, nil
}
