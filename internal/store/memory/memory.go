// Package memory is the in-process store backend: versioned documents in
// maps, compare-and-swap at commit. It backs the service tests and small
// single-node deployments.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"keyshop/internal/store"
)

const maxAttempts = 5

type document struct {
	payload []byte
	version uint64
}

type collection struct {
	docs  map[string]*document
	order []string
}

type Store struct {
	mu   sync.RWMutex
	cols map[string]*collection
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{cols: make(map[string]*collection)}
}

func (s *Store) col(name string) *collection {
	c, ok := s.cols[name]
	if !ok {
		c = &collection{docs: make(map[string]*document)}
		s.cols[name] = c
	}
	return c
}

func (s *Store) Get(ctx context.Context, col, id string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cols[col]
	if !ok {
		return store.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(doc.payload, out)
}

func (s *Store) List(ctx context.Context, col string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cols[col]
	if !ok {
		return nil, nil
	}
	out := make([]store.Document, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		payload := make([]byte, len(doc.payload))
		copy(payload, doc.payload)
		out = append(out, store.Document{ID: id, Payload: payload})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, col, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cols[col]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// RunTransaction retries fn on commit conflicts with fresh reads each
// attempt. A non-conflict error from fn aborts immediately with nothing
// written.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &memTx{store: s, reads: make(map[string]uint64), pending: make(map[string]int)}
		if err := fn(tx); err != nil {
			return err
		}
		err := s.commit(tx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return store.ErrConflict
}

type write struct {
	collection string
	id         string
	payload    []byte
	delete     bool
}

type memTx struct {
	store *Store
	// reads maps collection/id to the version observed, 0 for absent.
	reads   map[string]uint64
	writes  []write
	pending map[string]int // key -> index into writes
}

func key(col, id string) string { return col + "/" + id }

func (t *memTx) Get(ctx context.Context, col, id string, out any) error {
	if i, ok := t.pending[key(col, id)]; ok {
		w := t.writes[i]
		if w.delete {
			return store.ErrNotFound
		}
		return json.Unmarshal(w.payload, out)
	}

	t.store.mu.RLock()
	var doc *document
	if c, ok := t.store.cols[col]; ok {
		doc = c.docs[id]
	}
	if doc == nil {
		t.store.mu.RUnlock()
		// Record the absence so a concurrent create conflicts with us.
		t.reads[key(col, id)] = 0
		return store.ErrNotFound
	}
	payload := make([]byte, len(doc.payload))
	copy(payload, doc.payload)
	version := doc.version
	t.store.mu.RUnlock()

	t.reads[key(col, id)] = version
	return json.Unmarshal(payload, out)
}

func (t *memTx) Set(col, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	t.queue(write{collection: col, id: id, payload: payload})
	return nil
}

func (t *memTx) Delete(col, id string) {
	t.queue(write{collection: col, id: id, delete: true})
}

func (t *memTx) queue(w write) {
	k := key(w.collection, w.id)
	if i, ok := t.pending[k]; ok {
		t.writes[i] = w
		return
	}
	t.pending[k] = len(t.writes)
	t.writes = append(t.writes, w)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, seen := range tx.reads {
		col, id := splitKey(k)
		var current uint64
		if c, ok := s.cols[col]; ok {
			if doc, ok := c.docs[id]; ok {
				current = doc.version
			}
		}
		if current != seen {
			return store.ErrConflict
		}
	}

	for _, w := range tx.writes {
		c := s.col(w.collection)
		if w.delete {
			if _, ok := c.docs[w.id]; !ok {
				continue
			}
			delete(c.docs, w.id)
			for i, id := range c.order {
				if id == w.id {
					c.order = append(c.order[:i], c.order[i+1:]...)
					break
				}
			}
			continue
		}
		doc, ok := c.docs[w.id]
		if !ok {
			c.docs[w.id] = &document{payload: w.payload, version: 1}
			c.order = append(c.order, w.id)
			continue
		}
		doc.payload = w.payload
		doc.version++
	}
	return nil
}

func splitKey(k string) (string, string) {
	for i := 0; i < len(k); i++ {
		if k[i] == '/' {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}
