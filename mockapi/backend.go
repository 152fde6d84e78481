package mockapi

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/visitor-session/authclient"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

// refreshRecord is the server-side metadata behind an opaque refresh token.
type refreshRecord struct {
	UserID string
	Iat    time.Time
}

// Backend is the in-memory account and token state behind the mock API.
type Backend struct {
	users   users.UserRepo
	tokens  *TokenIssuer
	revoked *revokedTokens
	nowTime func() time.Time

	refresh     map[string]refreshRecord // refresh token -> record
	refreshLock sync.Mutex
}

type BackendOption func(*Backend)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) BackendOption {
	return func(b *Backend) {
		b.nowTime = nowFunc
	}
}

func NewBackend(userRepo users.UserRepo, secret string, tokenTTL time.Duration, options ...BackendOption) (*Backend, error) {
	if userRepo == nil {
		return nil, errors.New("[NewBackend] user repo is required")
	}
	if secret == "" {
		return nil, errors.New("[NewBackend] signing secret is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("[NewBackend] token ttl must be positive")
	}

	b := &Backend{
		users:   userRepo,
		revoked: newRevokedTokens(),
		nowTime: time.Now,
		refresh: make(map[string]refreshRecord),
	}
	for _, opt := range options {
		opt(b)
	}
	b.tokens = NewTokenIssuer(secret, tokenTTL, b.nowTime)
	return b, nil
}

// Login checks credentials and issues a token pair.
func (b *Backend) Login(email, password string) (*authclient.LoginData, error) {
	user, err := b.users.GetByEmail(email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	now := b.nowTime().UTC()
	user.LastLogin = &now
	if err := b.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Backend.Login] users.Upsert")
	}

	access, _, err := b.tokens.Issue(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Backend.Login] tokens.Issue")
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Backend.Login] newRefreshToken")
	}

	b.refreshLock.Lock()
	// single refresh token per user
	for tok, rec := range b.refresh {
		if rec.UserID == user.ID {
			delete(b.refresh, tok)
		}
	}
	b.refresh[refresh] = refreshRecord{UserID: user.ID, Iat: now}
	b.refreshLock.Unlock()

	return &authclient.LoginData{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate resolves a bearer token to its active user.
func (b *Backend) Authenticate(rawToken string) (*users.User, *AccessClaims, error) {
	claims, err := b.tokens.Parse(rawToken)
	if err != nil {
		return nil, nil, err
	}
	if b.revoked.IsRevoked(claims.ID) {
		return nil, nil, apperrors.ErrTokenRevoked
	}
	user, err := b.users.GetByID(claims.Subject)
	if err != nil {
		return nil, nil, apperrors.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUserInactive
	}
	return user, claims, nil
}

// UpdateProfile applies patch to the user's record.
func (b *Backend) UpdateProfile(userID string, patch users.ProfilePatch) (*users.User, error) {
	user, err := b.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if patch.ApplyTo(user) {
		user.UpdatedAt = b.nowTime().UTC()
		if err := b.users.Upsert(user); err != nil {
			return nil, errors.Wrap(err, "[Backend.UpdateProfile] users.Upsert")
		}
	}
	return user, nil
}

// Logout revokes the access token and drops the user's refresh token.
func (b *Backend) Logout(claims *AccessClaims) {
	exp := b.nowTime()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	b.revoked.Add(claims.ID, exp)
	b.revoked.Cleanup(b.nowTime())

	b.refreshLock.Lock()
	defer b.refreshLock.Unlock()
	for tok, rec := range b.refresh {
		if rec.UserID == claims.Subject {
			delete(b.refresh, tok)
		}
	}
}

// HasRefreshToken reports whether userID currently holds a refresh token.
func (b *Backend) HasRefreshToken(userID string) bool {
	b.refreshLock.Lock()
	defer b.refreshLock.Unlock()
	for _, rec := range b.refresh {
		if rec.UserID == userID {
			return true
		}
	}
	return false
}

func (b *Backend) Users() users.UserRepo {
	return b.users
}
