package memkv

import (
	"context"
	"sync"

	"github.com/jrsteele09/visitor-session/storage"
)

var _ storage.KV = (*Store)(nil)

// Store is an in-memory storage.KV.
type Store struct {
	values map[string]string
	lock   sync.RWMutex

	getErr, setErr, removeErr error
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// NewWithValues seeds the store, which is handy for hydration tests.
func NewWithValues(values map[string]string) *Store {
	s := New()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.values, key)
	return nil
}

// FailWith makes subsequent calls return the given errors; nil clears a failure.
func (s *Store) FailWith(get, set, remove error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.getErr, s.setErr, s.removeErr = get, set, remove
}

// Snapshot copies the current contents.
func (s *Store) Snapshot() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
