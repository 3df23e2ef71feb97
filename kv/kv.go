// Package kv defines the engine's view of the external KVS boundary
// (§1, §6): get_or_create_storage, begin_transaction, get/put/remove, an
// ordered scan yielding an iterator, and commit/abort. The engine only
// consumes this interface; a real implementation is an external
// collaborator. Package kvtest provides an in-memory reference
// implementation used to exercise the core in tests.
package kv

import "context"

// PutOption selects the semantics of Storage.Put (§6).
type PutOption uint8

const (
	// Create fails if the key already exists.
	Create PutOption = iota
	// CreateOrUpdate inserts or overwrites.
	CreateOrUpdate
)

// ErrKeyExists is returned by Put(..., Create) when the key is already
// present.
var ErrKeyExists = errExists{}

type errExists struct{}

func (errExists) Error() string { return "kv: key already exists" }

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "kv: key not found" }

// Mode is the transaction kind declared at begin_transaction (§4.2.3).
type Mode uint8

const (
	ModeShort Mode = iota
	ModeLong
)

// EndPointKind classifies a range bound (§4.3.2).
type EndPointKind uint8

const (
	Unbound EndPointKind = iota
	Inclusive
	Exclusive
	PrefixedInclusive
	PrefixedExclusive
)

// Bound is one end of a scan range.
type Bound struct {
	Key  []byte
	Kind EndPointKind
}

// Range is a [Lo, Hi] scan range over encoded keys (§4.3.2). An Empty
// range (IsEmpty true) yields no rows without issuing a scan.
type Range struct {
	Lo      Bound
	Hi      Bound
	IsEmpty bool
}

// Iterator walks (key, value) pairs in ascending encoded-key order.
// Views returned by Key/Value are valid until the next call to Next.
type Iterator interface {
	// Next advances the iterator and reports whether a pair is available.
	Next(ctx context.Context) (bool, error)
	Key() []byte
	Value() []byte
	Close() error
}

// Storage is one named KVS table (primary or secondary index storage).
type Storage interface {
	Get(ctx context.Context, tx Transaction, key []byte) ([]byte, error)
	Put(ctx context.Context, tx Transaction, key, value []byte, opt PutOption) error
	Remove(ctx context.Context, tx Transaction, key []byte) error
	Scan(ctx context.Context, tx Transaction, r Range) (Iterator, error)
}

// Transaction is an open transaction against the KVS.
type Transaction interface {
	Mode() Mode
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	// IsActive reports whether the transaction may still be used; it is
	// false once Commit or Abort has completed, or after a fatal error.
	IsActive() bool
}

// BeginParams carries the transaction-begin parameters of §6.
type BeginParams struct {
	Mode                Mode
	ReadOnly            bool
	WritePreserve       []string
	ReadAreaInclusive   []string
	ReadAreaExclusive   []string
}

// DB is the top-level KVS handle (§1 `kvs` interface).
type DB interface {
	GetOrCreateStorage(ctx context.Context, name string) (Storage, error)
	BeginTransaction(ctx context.Context, params BeginParams) (Transaction, error)
}
