package session

import (
	"context"
)

// Start revalidates a hydrated session against the client in the background. It runs
// at most once per Store; later calls return the same channel. The channel is closed
// when the revalidation has finished or been abandoned.
//
// Cancelling ctx abandons the revalidation: once ctx is done no outcome is applied to
// the session or to storage, even if the fetch still completes.
func (s *Store) Start(ctx context.Context) <-chan struct{} {
	s.startOnce.Do(func() {
		go s.revalidate(ctx)
	})
	return s.revalidated
}

// Revalidated is closed when the startup revalidation has finished.
func (s *Store) Revalidated() <-chan struct{} {
	return s.revalidated
}

func (s *Store) revalidate(ctx context.Context) {
	defer close(s.revalidated)

	s.lock.RLock()
	token := s.hydratedToken
	cached := s.state.User.Clone()
	s.lock.RUnlock()

	if token == "" {
		return
	}

	resp, fetchErr := s.client.FetchProfile(ctx)

	s.transitionLock.Lock()
	if ctx.Err() != nil {
		s.transitionLock.Unlock()
		s.logger.Debug().Msg("revalidation cancelled")
		return
	}
	// a login or logout since hydration owns the session now
	if s.AccessToken() != token {
		s.transitionLock.Unlock()
		s.logger.Debug().Msg("session changed during revalidation")
		return
	}

	if fetchErr != nil || !resp.Valid() {
		s.clearPersisted(ctx)
		s.apply(action{typ: actionLogout})
		s.transitionLock.Unlock()

		ev := s.logger.Info()
		if fetchErr != nil {
			ev = ev.Err(fetchErr)
		} else if resp != nil && resp.Message != "" {
			ev = ev.Str("message", resp.Message)
		}
		ev.Msg("persisted session is no longer valid")
		s.emit(Event{Kind: EventSessionEnded, Reason: ReasonInvalid, User: cached})
		return
	}

	fresh := resp.Data.User
	if fresh.Equal(cached) {
		// unchanged: only a stale error goes
		s.apply(action{typ: actionProfileRefreshed, user: cached})
		s.transitionLock.Unlock()
		return
	}

	snap := s.apply(action{typ: actionProfileRefreshed, user: fresh})
	s.persistUser(ctx, snap.User)
	s.transitionLock.Unlock()

	s.emit(Event{Kind: EventProfileRefreshed, User: snap.User})
}
