package session

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/storage"
	"github.com/jrsteele09/visitor-session/users"
)

// hydrate seeds the in-memory session from the persisted slots. A user slot that does
// not parse is treated as no session and every slot is cleared. A token without a user,
// or a user without a token, hydrates as anonymous and is left in place.
func (s *Store) hydrate(ctx context.Context) {
	access, hasAccess := s.readSlot(ctx, storage.KeyAccessToken)
	refresh, _ := s.readSlot(ctx, storage.KeyRefreshToken)
	rawUser, hasUser := s.readSlot(ctx, storage.KeyUser)

	if !hasUser {
		return
	}

	var user *users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user == nil {
		if err == nil {
			err = apperrors.ErrCorruptSession
		} else {
			err = apperrors.Wrapf(apperrors.ErrCorruptSession, "%s", err)
		}
		s.logger.Warn().Err(err).Msg("clearing session")
		s.clearPersisted(ctx)
		return
	}
	if !hasAccess {
		return
	}

	s.state = reduce(Session{}, action{
		typ:          actionLoginSuccess,
		user:         user,
		accessToken:  access,
		refreshToken: refresh,
	})
	s.hydratedToken = access
}

// readSlot returns the slot value; read failures and empty values count as absent.
func (s *Store) readSlot(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to read persisted session")
		return "", false
	}
	return v, ok && v != ""
}

// persistSession writes all three slots for an authenticated snapshot.
func (s *Store) persistSession(ctx context.Context, snap Session) {
	ctx = context.WithoutCancel(ctx)
	s.writeSlot(ctx, storage.KeyAccessToken, snap.AccessToken)
	if snap.RefreshToken != "" {
		s.writeSlot(ctx, storage.KeyRefreshToken, snap.RefreshToken)
	} else {
		s.removeSlot(ctx, storage.KeyRefreshToken)
	}
	s.persistUser(ctx, snap.User)
}

func (s *Store) persistUser(ctx context.Context, user *users.User) {
	if user == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.Err(err).Msg("failed to encode user")
		return
	}
	s.writeSlot(context.WithoutCancel(ctx), storage.KeyUser, string(raw))
}

// clearPersisted removes every slot, attempting all of them even when one fails.
func (s *Store) clearPersisted(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range storage.SessionKeys {
		s.removeSlot(ctx, key)
	}
}

func (s *Store) writeSlot(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to persist session")
	}
}

func (s *Store) removeSlot(ctx context.Context, key string) {
	if err := s.kv.Remove(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to clear persisted session")
	}
}
