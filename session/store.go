package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/visitor-session/authclient"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/storage"
	"github.com/jrsteele09/visitor-session/users"
)

// User-facing fallback messages.
const (
	MsgLoginFailed         = "Login failed"
	MsgUnexpectedError     = "An unexpected error occurred. Please try again."
	MsgProfileUpdateFailed = "Failed to update profile"
	MsgNotAuthenticated    = "You must be logged in to update your profile"
)

const defaultRedirectDelay = time.Second

// Store owns the authentication state of one dashboard user. All mutation goes through
// its transitions; the three persisted slots in the KV mirror the authenticated state.
// Store methods are safe for concurrent use.
type Store struct {
	client        authclient.Client
	kv            storage.KV
	logger        zerolog.Logger
	nowTime       func() time.Time
	redirectDelay time.Duration

	state Session
	lock  sync.RWMutex

	// transitionLock serializes a transition together with its storage side effect
	transitionLock sync.Mutex

	// hydratedToken is the access token a pending startup revalidation applies to
	hydratedToken string
	startOnce     sync.Once
	revalidated   chan struct{}

	observers      []subscription
	observerLock   sync.Mutex
	nextObserverID int

	// timerLock guards timers and closed; inflight tracks remote logouts started before Close
	timers    map[*time.Timer]struct{}
	closed    bool
	inflight  sync.WaitGroup
	timerLock sync.Mutex
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithRedirectDelay sets how long after Logout the SessionEnded event is delivered.
// Zero or less delivers it before Logout returns.
func WithRedirectDelay(d time.Duration) Option {
	return func(s *Store) {
		s.redirectDelay = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// New builds a Store and hydrates it from kv. A persisted session is exposed as
// authenticated immediately; call Start to revalidate it against the client.
func New(client authclient.Client, kv storage.KV, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("[session.New] auth client is required")
	}
	if kv == nil {
		return nil, errors.New("[session.New] kv is required")
	}

	s := &Store{
		client:        client,
		kv:            kv,
		logger:        log.Logger,
		nowTime:       time.Now,
		redirectDelay: defaultRedirectDelay,
		revalidated:   make(chan struct{}),
		timers:        make(map[*time.Timer]struct{}),
	}
	for _, opt := range options {
		opt(s)
	}

	s.hydrate(context.Background())
	return s, nil
}

// Login authenticates against the client. It reports success and never returns an
// error; failures land in Session.Error and an EventLoginFailed.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	s.transition(action{typ: actionStartLogin})

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.Err(err).Str("email", email).Msg("login request failed")
		s.failLogin(MsgUnexpectedError)
		return false
	}
	if !resp.Valid() {
		msg := MsgLoginFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		s.failLogin(msg)
		return false
	}

	data := resp.Data
	s.transitionLock.Lock()
	snap := s.apply(action{
		typ:          actionLoginSuccess,
		user:         data.User,
		accessToken:  data.AccessToken,
		refreshToken: data.RefreshToken,
	})
	s.persistSession(ctx, snap)
	s.transitionLock.Unlock()

	s.logger.Info().Str("user_id", snap.User.ID).Str("role", string(snap.User.Role)).Msg("logged in")
	s.emit(Event{Kind: EventLoginSucceeded, User: snap.User})
	return true
}

func (s *Store) failLogin(message string) {
	s.transition(action{typ: actionLoginFailure, message: message})
	s.emit(Event{Kind: EventLoginFailed, Message: message})
}

// Logout ends the session. Local state and the persisted slots are cleared before it
// returns; the remote logout is best-effort and runs in the background with the token
// the session held. SessionEnded follows after the redirect delay.
func (s *Store) Logout(ctx context.Context) {
	s.transitionLock.Lock()
	prev := s.Snapshot()
	s.clearPersisted(ctx)
	s.apply(action{typ: actionLogout})
	s.transitionLock.Unlock()

	s.remoteLogout(ctx, prev)
	s.emit(Event{Kind: EventLoggedOut, User: prev.User})
	s.endSessionAfter(s.redirectDelay, ReasonLogout)
}

func (s *Store) remoteLogout(ctx context.Context, prev Session) {
	ctx = context.WithoutCancel(ctx)
	if prev.AccessToken != "" {
		ctx = authclient.WithToken(ctx, &oauth2.Token{
			AccessToken:  prev.AccessToken,
			RefreshToken: prev.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	s.timerLock.Lock()
	tracked := !s.closed
	if tracked {
		s.inflight.Add(1)
	}
	s.timerLock.Unlock()

	go func() {
		if tracked {
			defer s.inflight.Done()
		}
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Debug().Err(err).Msg("remote logout failed")
		}
	}()
}

// UpdateProfile sends patch to the client and stores the returned user. Failures leave
// the session untouched and are reported through EventProfileUpdateFailed only.
func (s *Store) UpdateProfile(ctx context.Context, patch users.ProfilePatch) bool {
	if !s.IsAuthenticated() {
		s.logger.Debug().Err(apperrors.ErrNotAuthenticated).Msg("profile update refused")
		s.emit(Event{Kind: EventProfileUpdateFailed, Message: MsgNotAuthenticated})
		return false
	}

	resp, err := s.client.UpdateProfile(ctx, patch)
	if err != nil {
		s.logger.Err(err).Msg("profile update request failed")
		s.emit(Event{Kind: EventProfileUpdateFailed, Message: MsgProfileUpdateFailed})
		return false
	}
	if !resp.Valid() {
		msg := MsgProfileUpdateFailed
		if resp != nil && resp.Message != "" {
			msg = resp.Message
		}
		s.emit(Event{Kind: EventProfileUpdateFailed, Message: msg})
		return false
	}

	s.transitionLock.Lock()
	if !s.IsAuthenticated() {
		s.transitionLock.Unlock()
		s.logger.Debug().Err(apperrors.ErrNotAuthenticated).Msg("session ended during profile update")
		s.emit(Event{Kind: EventProfileUpdateFailed, Message: MsgNotAuthenticated})
		return false
	}
	snap := s.apply(action{typ: actionProfileUpdated, user: resp.Data.User})
	s.persistUser(ctx, snap.User)
	s.transitionLock.Unlock()

	s.emit(Event{Kind: EventProfileUpdated, User: snap.User})
	return true
}

// ClearError drops the error message and any loading flag. It is idempotent.
func (s *Store) ClearError() {
	s.transition(action{typ: actionClearError})
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.clone()
}

func (s *Store) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.AccessToken
}

func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.IsAuthenticated
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *users.User {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.User.Clone()
}

// Authorize reports whether the session is authenticated and, when roles are given,
// whether the user holds one of them.
func (s *Store) Authorize(roles ...users.RoleType) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if !s.state.IsAuthenticated {
		return false
	}
	return len(roles) == 0 || s.state.User.HasRole(roles...)
}

// Close stops any pending SessionEnded delivery and waits for remote logouts already
// in flight. A Logout after Close still clears the session but delivers no SessionEnded.
func (s *Store) Close() {
	s.timerLock.Lock()
	s.closed = true
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
	s.timerLock.Unlock()

	s.inflight.Wait()
}

// transition applies a transition that has no storage side effect.
func (s *Store) transition(a action) Session {
	s.transitionLock.Lock()
	defer s.transitionLock.Unlock()
	return s.apply(a)
}

// apply must be called with transitionLock held.
func (s *Store) apply(a action) Session {
	s.lock.Lock()
	s.state = reduce(s.state, a)
	snap := s.state.clone()
	s.lock.Unlock()

	s.logger.Debug().
		Str("action", a.typ.String()).
		Bool("authenticated", snap.IsAuthenticated).
		Bool("loading", snap.IsLoading).
		Msg("session transition")
	return snap
}

func (s *Store) endSessionAfter(delay time.Duration, reason EndReason) {
	s.timerLock.Lock()
	if s.closed {
		s.timerLock.Unlock()
		return
	}
	if delay > 0 {
		var t *time.Timer
		t = time.AfterFunc(delay, func() {
			s.timerLock.Lock()
			delete(s.timers, t)
			s.timerLock.Unlock()
			s.emit(Event{Kind: EventSessionEnded, Reason: reason})
		})
		s.timers[t] = struct{}{}
		s.timerLock.Unlock()
		return
	}
	s.timerLock.Unlock()

	s.emit(Event{Kind: EventSessionEnded, Reason: reason})
}
