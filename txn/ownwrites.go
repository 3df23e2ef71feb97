package txn

import "sync"

// OwnWrites tracks, per storage table, the keys this transaction has
// deleted so that a later point or range read within the same
// transaction never observes them (§4.2.4) — even if the underlying KVS
// would otherwise still return a stale entry (e.g. snapshot isolation
// that only becomes consistent at commit). A subsequent Put for the same
// key clears the mark, so re-inserting after a delete is visible again.
type OwnWrites struct {
	mu      sync.Mutex
	deleted map[string]map[string]bool // table -> key -> deleted
}

func NewOwnWrites() *OwnWrites {
	return &OwnWrites{deleted: make(map[string]map[string]bool)}
}

func (w *OwnWrites) MarkDeleted(table string, key []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.deleted[table]
	if m == nil {
		m = make(map[string]bool)
		w.deleted[table] = m
	}
	m[string(key)] = true
}

func (w *OwnWrites) MarkWritten(table string, key []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if m := w.deleted[table]; m != nil {
		delete(m, string(key))
	}
}

func (w *OwnWrites) IsDeleted(table string, key []byte) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.deleted[table]
	if m == nil {
		return false
	}
	return m[string(key)]
}
