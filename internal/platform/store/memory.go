package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It backs single-node deployments and
// every test that needs a live feed. Snapshots are delivered synchronously
// on the mutating goroutine, in stable key order.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]map[string]any // collection -> key -> doc
	subs   map[string]map[int]func(docs []map[string]any)
	nextID int

	// Now is the write clock, swappable in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]map[string]any),
		subs: make(map[string]map[int]func(docs []map[string]any)),
		Now:  time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(collection), nil
}

func (s *MemoryStore) Get(_ context.Context, collection, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Put(_ context.Context, collection, key string, doc map[string]any) error {
	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}
	s.data[collection][key] = cloneDoc(resolveSentinels(doc, s.Now()))
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, collection, key string, fields map[string]any) error {
	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}
	doc := s.data[collection][key]
	if doc == nil {
		doc = make(map[string]any, len(fields))
	}
	for k, v := range resolveSentinels(fields, s.Now()) {
		doc[k] = v
	}
	s.data[collection][key] = doc
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	if _, ok := s.data[collection][key]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.data[collection], key)
	s.mu.Unlock()

	s.notify(collection)
	return nil
}

// Subscribe delivers the current snapshot immediately, then one snapshot per
// mutation. Callbacks run synchronously; slow consumers slow down writers,
// which is acceptable in-process and keeps delivery ordered.
func (s *MemoryStore) Subscribe(collection string, fn func(docs []map[string]any)) func() {
	s.mu.Lock()
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]func(docs []map[string]any))
	}
	id := s.nextID
	s.nextID++
	s.subs[collection][id] = fn
	initial := s.snapshotLocked(collection)
	s.mu.Unlock()

	fn(initial)

	return func() {
		s.mu.Lock()
		delete(s.subs[collection], id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) notify(collection string) {
	s.mu.RLock()
	docs := s.snapshotLocked(collection)
	fns := make([]func(docs []map[string]any), 0, len(s.subs[collection]))
	for _, fn := range s.subs[collection] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(docs)
	}
}

func (s *MemoryStore) snapshotLocked(collection string) []map[string]any {
	keys := make([]string, 0, len(s.data[collection]))
	for k := range s.data[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, cloneDoc(s.data[collection][k]))
	}
	return docs
}
