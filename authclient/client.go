package authclient

import (
	"context"

	"github.com/jrsteele09/visitor-session/users"
)

// Client is the remote auth capability the session store calls out to.
// A returned error is a transport or unexpected failure; a response with
// Success false is a failure reported by the server.
type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	FetchProfile(ctx context.Context) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, patch users.ProfilePatch) (*ProfileResponse, error)
	// Logout is best-effort; callers ignore its error
	Logout(ctx context.Context) error
}

// LoginData is the payload of a successful login.
type LoginData struct {
	User         *users.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type LoginResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    *LoginData `json:"data,omitempty"`
}

// Valid reports whether the response carries everything a login success needs.
func (r *LoginResponse) Valid() bool {
	return r != nil && r.Success && r.Data != nil && r.Data.User != nil && r.Data.AccessToken != ""
}

type ProfileData struct {
	User *users.User `json:"user"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *ProfileData `json:"data,omitempty"`
}

func (r *ProfileResponse) Valid() bool {
	return r != nil && r.Success && r.Data != nil && r.Data.User != nil
}

// LoginFailure builds a failed login envelope.
func LoginFailure(message string) *LoginResponse {
	return &LoginResponse{Success: false, Message: message}
}

// ProfileFailure builds a failed profile envelope.
func ProfileFailure(message string) *ProfileResponse {
	return &ProfileResponse{Success: false, Message: message}
}
