package txn

import (
	"context"
	"testing"

	"github.com/kvsql/engine/errtax"
	"github.com/kvsql/engine/kv"
	"github.com/kvsql/engine/kv/kvtest"
)

func newLongGuard(t *testing.T, db *kvtest.MemKVS, writePreserve, readInclusive, readExclusive []string) *Guard {
	t.Helper()
	params := kv.BeginParams{Mode: kv.ModeLong, WritePreserve: writePreserve, ReadAreaInclusive: readInclusive, ReadAreaExclusive: readExclusive}
	tx, err := db.BeginTransaction(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGuard(tx, params)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGuardRejectsLTXWriteWithoutWritePreserve(t *testing.T) {
	db := kvtest.New()
	db.Declare("a")
	db.Declare("b")
	g := newLongGuard(t, db, []string{"a"}, nil, nil)

	if err := g.CheckWrite("a"); err != nil {
		t.Fatalf("write to a preserved table should succeed: %v", err)
	}
	err := g.CheckWrite("b")
	if !errtax.Is(err, errtax.ErrLTXWriteWithoutWritePreserve) {
		t.Fatalf("got %v, want ErrLTXWriteWithoutWritePreserve", err)
	}

	// A failed check deactivates the transaction: the same first error
	// must be observed by a later, unrelated call (§7 propagation).
	err2 := g.CheckWrite("a")
	if err2 != err {
		t.Errorf("expected idempotent first-failure propagation, got a different error: %v", err2)
	}
}

func TestGuardWritePreserveImpliesReadInclusion(t *testing.T) {
	db := kvtest.New()
	db.Declare("a")
	db.Declare("b")
	// write_preserve=[a], read_area_inclusive=[b] explicitly: a is
	// implicitly added to the inclusive read area too (§6).
	g := newLongGuard(t, db, []string{"a"}, []string{"b"}, nil)
	if err := g.CheckRead("a"); err != nil {
		t.Errorf("write_preserve table should be implicitly readable: %v", err)
	}
	if err := g.CheckRead("b"); err != nil {
		t.Errorf("explicitly inclusive table should be readable: %v", err)
	}
}

func TestGuardExclusiveWinsOverInclusive(t *testing.T) {
	db := kvtest.New()
	db.Declare("a")
	g := newLongGuard(t, db, []string{"a"}, []string{"a"}, []string{"a"})
	err := g.CheckRead("a")
	if !errtax.Is(err, errtax.ErrReadOperationOnRestrictedArea) {
		t.Fatalf("got %v, want ErrReadOperationOnRestrictedArea (exclusive wins)", err)
	}
}

func TestGuardShortModeUnrestricted(t *testing.T) {
	db := kvtest.New()
	tx, err := db.BeginTransaction(context.Background(), kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGuard(tx, kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.CheckWrite("anything"); err != nil {
		t.Errorf("short transaction should allow writing any table: %v", err)
	}
	if err := g.CheckRead("anything"); err != nil {
		t.Errorf("short transaction should allow reading any table: %v", err)
	}
}

func TestViewOwnWriteDeleteIsInvisible(t *testing.T) {
	db := kvtest.New()
	db.Declare("t")
	storage, err := db.GetOrCreateStorage(context.Background(), "t")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := db.BeginTransaction(context.Background(), kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGuard(tx, kv.BeginParams{Mode: kv.ModeShort})
	if err != nil {
		t.Fatal(err)
	}
	view := NewView("t", storage, g)

	key := []byte("k")
	if err := view.Put(context.Background(), key, []byte("v"), kv.CreateOrUpdate); err != nil {
		t.Fatal(err)
	}
	if err := view.Remove(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Get(context.Background(), key); err != kv.ErrNotFound {
		t.Errorf("expected own-write delete to be invisible to a later Get, got %v", err)
	}

	// Re-inserting after the delete clears the own-write mark.
	if err := view.Put(context.Background(), key, []byte("v2"), kv.CreateOrUpdate); err != nil {
		t.Fatal(err)
	}
	got, err := view.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("expected the re-inserted key to be visible: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("got %q, want v2", got)
	}
}
