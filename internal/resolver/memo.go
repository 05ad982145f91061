package resolver

import "sync"

// MemoStore caches resolved form -> lemma pairs. Resolution is a pure
// function of the surface form, so entries are never invalidated; the
// store only has to be safe for concurrent readers and writers.
type MemoStore interface {
	Get(form string) (string, bool)
	Put(form string, lemma string)
}

// MemoryStore is an in-process MemoStore guarded by an RWMutex.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryStore creates an empty in-process memo store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(form string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lemma, ok := s.m[form]
	return lemma, ok
}

func (s *MemoryStore) Put(form string, lemma string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[form] = lemma
}

// Len returns the number of memoized forms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
