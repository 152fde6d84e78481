package clientfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/visitor-session/authclient"
	"github.com/jrsteele09/visitor-session/users"
)

var _ authclient.Client = (*FakeClient)(nil)

// FakeClient is a scriptable authclient.Client. Each call returns the configured
// response/error pair. A non-nil gate holds the call until the gate is closed or the
// call's context ends; in the latter case the context error is returned.
type FakeClient struct {
	lock sync.Mutex

	LoginResp *authclient.LoginResponse
	LoginErr  error
	LoginGate chan struct{}

	ProfileResp *authclient.ProfileResponse
	ProfileErr  error
	ProfileGate chan struct{}

	UpdateResp *authclient.ProfileResponse
	UpdateErr  error

	LogoutErr  error
	LogoutGate chan struct{}

	// Entered receives a value each time a gated call starts waiting
	Entered chan string

	loginCalls, profileCalls, updateCalls, logoutCalls int

	lastPatch       users.ProfilePatch
	lastLogoutToken string
}

func New() *FakeClient {
	return &FakeClient{Entered: make(chan string, 16)}
}

func (f *FakeClient) Login(ctx context.Context, email, password string) (*authclient.LoginResponse, error) {
	f.lock.Lock()
	f.loginCalls++
	resp, err, gate := f.LoginResp, f.LoginErr, f.LoginGate
	f.lock.Unlock()

	if werr := f.wait(ctx, "login", gate); werr != nil {
		return nil, werr
	}
	return resp, err
}

func (f *FakeClient) FetchProfile(ctx context.Context) (*authclient.ProfileResponse, error) {
	f.lock.Lock()
	f.profileCalls++
	resp, err, gate := f.ProfileResp, f.ProfileErr, f.ProfileGate
	f.lock.Unlock()

	if werr := f.wait(ctx, "profile", gate); werr != nil {
		return nil, werr
	}
	return resp, err
}

func (f *FakeClient) UpdateProfile(_ context.Context, patch users.ProfilePatch) (*authclient.ProfileResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.updateCalls++
	f.lastPatch = patch
	return f.UpdateResp, f.UpdateErr
}

func (f *FakeClient) Logout(ctx context.Context) error {
	f.lock.Lock()
	f.logoutCalls++
	if tok, ok := authclient.TokenFromContext(ctx); ok {
		f.lastLogoutToken = tok.AccessToken
	}
	err, gate := f.LogoutErr, f.LogoutGate
	f.lock.Unlock()

	if werr := f.wait(ctx, "logout", gate); werr != nil {
		return werr
	}
	return err
}

// LastLogoutToken returns the access token the last Logout was handed via
// authclient.WithToken.
func (f *FakeClient) LastLogoutToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastLogoutToken
}

func (f *FakeClient) wait(ctx context.Context, name string, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case f.Entered <- name:
	default:
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Calls returns how many times each method has been invoked.
func (f *FakeClient) Calls() (login, profile, update, logout int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalls, f.profileCalls, f.updateCalls, f.logoutCalls
}

func (f *FakeClient) LastPatch() users.ProfilePatch {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastPatch
}

// LoginSucceeds scripts a successful login for user.
func (f *FakeClient) LoginSucceeds(user *users.User, access, refresh string) *FakeClient {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.LoginResp = &authclient.LoginResponse{
		Success: true,
		Data:    &authclient.LoginData{User: user.Clone(), AccessToken: access, RefreshToken: refresh},
	}
	f.LoginErr = nil
	return f
}

// ProfileReturns scripts FetchProfile to succeed with user.
func (f *FakeClient) ProfileReturns(user *users.User) *FakeClient {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.ProfileResp = &authclient.ProfileResponse{Success: true, Data: &authclient.ProfileData{User: user.Clone()}}
	f.ProfileErr = nil
	return f
}

// UpdateReturns scripts UpdateProfile to succeed with user.
func (f *FakeClient) UpdateReturns(user *users.User) *FakeClient {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.UpdateResp = &authclient.ProfileResponse{Success: true, Data: &authclient.ProfileData{User: user.Clone()}}
	f.UpdateErr = nil
	return f
}
