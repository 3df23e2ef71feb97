// Package kvtest provides an in-memory reference implementation of the
// kv.DB boundary (§1, §6), backed by an ordered google/btree index per
// storage. It exists only to exercise the engine's core in tests; a real
// KVS is an external collaborator per spec.md §1.
package kvtest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/btree"

	"github.com/kvsql/engine/kv"
)

type entry struct {
	key, value []byte
}

func less(a, b entry) bool { return bytes.Compare(a.key, b.key) < 0 }

// MemKVS is an in-memory kv.DB. It is safe for concurrent use: each
// Storage guards its btree with a mutex, matching the §5 requirement that
// the transaction object be thread-safe for concurrent get/put/remove.
type MemKVS struct {
	mu       sync.Mutex
	storages map[string]*memStorage
	known    map[string]bool
}

func New() *MemKVS {
	return &MemKVS{storages: make(map[string]*memStorage), known: make(map[string]bool)}
}

// Declare registers a table name as known, so BeginTransaction can reject
// an unrecognized table in write_preserve/read areas per §6.
func (m *MemKVS) Declare(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known[name] = true
}

func (m *MemKVS) GetOrCreateStorage(ctx context.Context, name string) (kv.Storage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.storages[name]
	if !ok {
		s = &memStorage{tree: btree.NewG(32, less)}
		m.storages[name] = s
		m.known[name] = true
	}
	return s, nil
}

func (m *MemKVS) BeginTransaction(ctx context.Context, params kv.BeginParams) (kv.Transaction, error) {
	if params.Mode == kv.ModeShort && len(params.WritePreserve) > 0 {
		return nil, fmt.Errorf("kvtest: short transaction must not declare write_preserve")
	}
	m.mu.Lock()
	for _, list := range [][]string{params.WritePreserve, params.ReadAreaInclusive, params.ReadAreaExclusive} {
		for _, name := range list {
			if !m.known[name] {
				m.mu.Unlock()
				return nil, fmt.Errorf("kvtest: unknown table %q", name)
			}
		}
	}
	m.mu.Unlock()
	return newMemTx(params), nil
}

type memStorage struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

func (s *memStorage) Get(ctx context.Context, tx kv.Transaction, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tree.Get(entry{key: key})
	if !ok {
		return nil, kv.ErrNotFound
	}
	return e.value, nil
}

func (s *memStorage) Put(ctx context.Context, tx kv.Transaction, key, value []byte, opt kv.PutOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.tree.Get(entry{key: key})
	if existed && opt == kv.Create {
		return kv.ErrKeyExists
	}
	s.tree.ReplaceOrInsert(entry{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	return nil
}

func (s *memStorage) Remove(ctx context.Context, tx kv.Transaction, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Delete(entry{key: key})
	return nil
}

func (s *memStorage) Scan(ctx context.Context, tx kv.Transaction, r kv.Range) (kv.Iterator, error) {
	if r.IsEmpty {
		return &sliceIterator{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []entry
	s.tree.Ascend(func(e entry) bool {
		entries = append(entries, entry{key: append([]byte(nil), e.key...), value: append([]byte(nil), e.value...)})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return bytes.Compare(entries[i].key, entries[j].key) < 0 })

	lo := 0
	if r.Lo.Kind != kv.Unbound {
		lo = sort.Search(len(entries), func(i int) bool {
			cmp := compareBound(entries[i].key, r.Lo.Key, r.Lo.Kind)
			if r.Lo.Kind == kv.Exclusive || r.Lo.Kind == kv.PrefixedExclusive {
				return cmp > 0
			}
			return cmp >= 0
		})
	}
	hi := len(entries)
	if r.Hi.Kind != kv.Unbound {
		hi = sort.Search(len(entries), func(i int) bool {
			cmp := compareBound(entries[i].key, r.Hi.Key, r.Hi.Kind)
			if r.Hi.Kind == kv.Exclusive || r.Hi.Kind == kv.PrefixedExclusive {
				return cmp >= 0
			}
			return cmp > 0
		})
	}
	if lo > hi {
		lo = hi
	}
	return &sliceIterator{entries: entries[lo:hi], idx: -1}, nil
}

// compareBound compares a candidate key against a bound, honoring prefix
// semantics: a prefixed bound matches any key sharing that prefix.
func compareBound(key, boundKey []byte, kind kv.EndPointKind) int {
	switch kind {
	case kv.PrefixedInclusive, kv.PrefixedExclusive:
		n := len(boundKey)
		if n > len(key) {
			return bytes.Compare(key, boundKey)
		}
		return bytes.Compare(key[:n], boundKey)
	default:
		return bytes.Compare(key, boundKey)
	}
}

type sliceIterator struct {
	entries []entry
	idx     int
}

func (it *sliceIterator) Next(ctx context.Context) (bool, error) {
	it.idx++
	return it.idx < len(it.entries), nil
}

func (it *sliceIterator) Key() []byte {
	if it.idx < 0 || it.idx >= len(it.entries) {
		return nil
	}
	return it.entries[it.idx].key
}

func (it *sliceIterator) Value() []byte {
	if it.idx < 0 || it.idx >= len(it.entries) {
		return nil
	}
	return it.entries[it.idx].value
}

func (it *sliceIterator) Close() error { return nil }
