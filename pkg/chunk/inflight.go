// pkg/chunk/inflight.go

package chunk

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrInFlight is returned by Begin when a fetch for the chunk is already running.
var ErrInFlight = errors.New("chunk is already in flight")

// Token is the handle of one dispatched fetch. A token is used once: after
// Cancel or Complete it no longer belongs to the registry.
type Token struct {
	id     ID
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *Token) ID() ID { return t.id }

func (t *Token) String() string { return fmt.Sprintf("chunk %d#%d", t.id, t.seq) }

// Context is cancelled when the fetch is cancelled through the registry.
func (t *Token) Context() context.Context { return t.ctx }

// Registry tracks the in-flight fetch of each chunk, at most one per id.
type Registry struct {
	sync.Mutex
	seq uint64
	rs  map[ID]*Token
}

func NewRegistry() *Registry {
	return &Registry{rs: make(map[ID]*Token)}
}

func (r *Registry) Has(id ID) bool {
	r.Lock()
	defer r.Unlock()
	_, ok := r.rs[id]
	return ok
}

// Begin registers a fetch for id, deriving its context from parent.
func (r *Registry) Begin(parent context.Context, id ID) (*Token, error) {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.rs[id]; ok {
		return nil, errors.Wrapf(ErrInFlight, "chunk %d", id)
	}
	r.seq++
	ctx, cancel := context.WithCancel(parent)
	t := &Token{id: id, seq: r.seq, ctx: ctx, cancel: cancel}
	r.rs[id] = t
	return t, nil
}

// Cancel aborts the fetch of id and forgets it. It reports whether anything was in flight.
func (r *Registry) Cancel(id ID) bool {
	r.Lock()
	t, ok := r.rs[id]
	if ok {
		delete(r.rs, id)
	}
	r.Unlock()
	if ok {
		t.cancel()
		logger.Debugf("cancel fetch of chunk %d", id)
	}
	return ok
}

// Current reports whether t is still the registered fetch of its chunk.
func (r *Registry) Current(t *Token) bool {
	r.Lock()
	defer r.Unlock()
	return r.rs[t.id] == t
}

// Complete removes t without cancelling it. It returns false when t is no
// longer the registered fetch of its chunk (cancelled or already completed),
// in which case the caller must drop the result.
func (r *Registry) Complete(t *Token) bool {
	r.Lock()
	defer r.Unlock()
	cur, ok := r.rs[t.id]
	if !ok || cur != t {
		return false
	}
	delete(r.rs, t.id)
	t.cancel() // release the context resources
	return true
}

// IDs returns the in-flight ids in ascending order.
func (r *Registry) IDs() []ID {
	r.Lock()
	ids := make([]ID, 0, len(r.rs))
	for id := range r.rs {
		ids = append(ids, id)
	}
	r.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.rs)
}

// CancelAll cancels every in-flight fetch and returns how many there were.
func (r *Registry) CancelAll() int {
	r.Lock()
	rs := r.rs
	r.rs = make(map[ID]*Token)
	r.Unlock()
	for _, t := range rs {
		t.cancel()
	}
	return len(rs)
}
