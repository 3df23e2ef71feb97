// Package lob implements the blob/clob reference split of §3.1/§4.3.4: a
// LOB produced mid-request lives in a per-session provider, and must be
// rebound to a durable datastore provider before it crosses the request
// boundary (returned to a caller, or written into a committed row).
package lob

import (
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/kvsql/engine/value"
)

// Provider tags distinguish which backing store a value.LOBReference
// resolves against.
const (
	ProviderSession  = "session"
	ProviderDurable  = "durable"
)

// Provider stores and retrieves LOB payloads under one provider tag.
type Provider interface {
	// Put stores payload and returns a fresh reference bound to this
	// provider.
	Put(payload []byte) (value.LOBReference, error)
	// Get resolves ref, which must carry this provider's tag.
	Get(ref value.LOBReference) ([]byte, error)
}

// SessionProvider is an in-memory, per-request LOB store: values written
// by an apply (§4.3.4) table-valued function land here first, uncompressed,
// since they rarely outlive the request that produced them.
type SessionProvider struct {
	mu      sync.Mutex
	nextID  uint64
	payload map[uint64][]byte
	refTag  []byte
}

// NewSessionProvider returns a SessionProvider whose references all carry
// refTag, a caller-supplied tag binding every reference it mints to this
// session (GLOSSARY "Reference tag"); a nil tag is fine for sessions that
// don't need cross-session reference validation.
func NewSessionProvider(refTag []byte) *SessionProvider {
	return &SessionProvider{payload: make(map[uint64][]byte), refTag: refTag}
}

func (p *SessionProvider) Put(payload []byte) (value.LOBReference, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.payload[id] = append([]byte(nil), payload...)
	return value.LOBReference{ProviderTag: ProviderSession, ID: id, RefTag: p.refTag}, nil
}

func (p *SessionProvider) Get(ref value.LOBReference) ([]byte, error) {
	if ref.ProviderTag != ProviderSession {
		return nil, fmt.Errorf("lob: reference %d carries provider tag %q, not %q", ref.ID, ref.ProviderTag, ProviderSession)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.payload[ref.ID]
	if !ok {
		return nil, fmt.Errorf("lob: no session payload for reference %d", ref.ID)
	}
	return b, nil
}

// DurableProvider is the datastore-backed provider results are rebound to
// once they leave the request boundary. Payloads are snappy-compressed on
// write, matching the original's blob_pool spill format.
type DurableProvider struct {
	mu      sync.Mutex
	nextID  uint64
	stored  map[uint64][]byte // snappy-compressed
}

func NewDurableProvider() *DurableProvider {
	return &DurableProvider{stored: make(map[uint64][]byte)}
}

func (p *DurableProvider) Put(payload []byte) (value.LOBReference, error) {
	compressed := snappy.Encode(nil, payload)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.stored[id] = compressed
	return value.LOBReference{ProviderTag: ProviderDurable, ID: id, RefTag: []byte(uuid.NewString())}, nil
}

func (p *DurableProvider) Get(ref value.LOBReference) ([]byte, error) {
	if ref.ProviderTag != ProviderDurable {
		return nil, fmt.Errorf("lob: reference %d carries provider tag %q, not %q", ref.ID, ref.ProviderTag, ProviderDurable)
	}
	p.mu.Lock()
	compressed, ok := p.stored[ref.ID]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("lob: no durable payload for reference %d", ref.ID)
	}
	return snappy.Decode(nil, compressed)
}

// Rebinder moves a LOB from the per-session provider to the durable one at
// a request boundary, per §4.3.4 ("when results leave the request
// boundary, LOBs must be rebound to the durable datastore provider").
type Rebinder struct {
	Session *SessionProvider
	Durable *DurableProvider
}

// Rebind resolves ref against Session and re-stores it in Durable,
// returning the new durable reference. A ref already bound to the durable
// provider is returned unchanged (rebinding is idempotent).
func (r *Rebinder) Rebind(ref value.LOBReference) (value.LOBReference, error) {
	if ref.ProviderTag == ProviderDurable {
		return ref, nil
	}
	payload, err := r.Session.Get(ref)
	if err != nil {
		return value.LOBReference{}, err
	}
	return r.Durable.Put(payload)
}

// RebindRow rebinds every LOB-kind field of row in place, leaving
// non-LOB fields untouched.
func (r *Rebinder) RebindRow(row []value.Any) error {
	for i, v := range row {
		if v.Kind() != value.KindBlob && v.Kind() != value.KindClob {
			continue
		}
		ref, ok := v.AsLOB()
		if !ok || ref.IsZero() {
			continue
		}
		rebound, err := r.Rebind(ref)
		if err != nil {
			return err
		}
		row[i] = value.NewLOB(v.Kind(), rebound)
	}
	return nil
}
