package docstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by the "memory" remote backend.
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[Key]Document
	offline bool
	failErr error
	writes  int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[Key]Document)}
}

// SetOffline makes every call fail with ErrUnavailable until cleared.
func (s *MemoryStore) SetOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// FailWith makes every call return err until called again with nil.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Writes returns how many write calls succeeded.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Keys returns every stored key.
func (s *MemoryStore) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]Key, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStore) check() error {
	if s.offline {
		return &UnavailableError{Backend: "memory", Err: ErrUnavailable}
	}
	return s.failErr
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	doc, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	out := doc.clone()
	return &out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key Key, doc Document) error {
	return s.SetMany(ctx, map[Key]Document{key: doc})
}

func (s *MemoryStore) SetMany(ctx context.Context, docs map[Key]Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for k, d := range docs {
		s.docs[k] = d.clone()
	}
	s.writes++
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	delete(s.docs, key)
	s.writes++
	return nil
}

func (s *MemoryStore) DeleteRealm(ctx context.Context, realm string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	for k := range s.docs {
		if strings.EqualFold(k.Realm, realm) {
			delete(s.docs, k)
		}
	}
	s.writes++
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check()
}
