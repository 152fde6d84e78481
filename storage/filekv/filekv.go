package filekv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/storage"
)

var _ storage.KV = (*Store)(nil)

// Store keeps all keys in a single JSON object on disk. Every mutation rewrites the
// file through a temp file and rename so a crash never leaves a half-written session.
type Store struct {
	path   string
	values map[string]string
	lock   sync.Mutex
}

// Open loads path, creating its directory if needed. A missing file is an empty store,
// and so is one that does not decode: it is logged and removed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, apperrors.Wrapf(err, "[filekv.Open] mkdir %s", filepath.Dir(path))
	}
	s := &Store{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, apperrors.Wrapf(err, "[filekv.Open] read %s", path)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		log.Warn().
			Err(apperrors.Wrapf(apperrors.ErrCorruptSession, "%s", err)).
			Str("path", path).
			Msg("discarding unreadable session file")
		s.values = make(map[string]string)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, apperrors.Wrapf(err, "[filekv.Open] remove %s", path)
		}
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev, existed := s.values[key]
	if !existed {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// flush must be called with the lock held.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return apperrors.Wrapf(err, "[filekv.flush] encode")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return apperrors.Wrapf(err, "[filekv.flush] create temp")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, "[filekv.flush] chmod")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, "[filekv.flush] write")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, "[filekv.flush] close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrapf(err, "[filekv.flush] rename")
	}
	return nil
}
