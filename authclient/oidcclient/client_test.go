package oidcclient_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/visitor-session/authclient"
	"github.com/jrsteele09/visitor-session/authclient/oidcclient"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/internal/utils"
	"github.com/jrsteele09/visitor-session/storage"
	"github.com/jrsteele09/visitor-session/storage/memkv"
	"github.com/jrsteele09/visitor-session/users"
)

const (
	testClientID     = "visitor-dashboard"
	testClientSecret = "s3cret"
	testKeyID        = "k1"
)

type providerAccount struct {
	password string
	claims   map[string]any
}

// fakeProvider is a minimal OpenID Connect provider: discovery, JWKS, password
// grant, UserInfo and revocation.
type fakeProvider struct {
	t        *testing.T
	server   *httptest.Server
	key      *rsa.PrivateKey
	accounts map[string]providerAccount // username -> account
	noRevoke bool

	mu      sync.Mutex
	access  map[string]string // access token -> username
	revoked []string
}

func newFakeProvider(t *testing.T, noRevoke bool) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{
		t:        t,
		key:      key,
		noRevoke: noRevoke,
		access:   make(map[string]string),
		accounts: map[string]providerAccount{
			"frontdesk@school.com": {password: "frontdesk123", claims: map[string]any{
				"sub": "idp-42", "email": "frontdesk@school.com", "given_name": "Jordan", "family_name": "Lee",
				"phone_number": "555-0102", "role": "frontdesk", "school_id": "school-001",
			}},
			"contractor@school.com": {password: "contractor123", claims: map[string]any{
				"sub": "idp-77", "email": "contractor@school.com", "given_name": "Casey",
			}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET /jwks", p.jwks)
	mux.HandleFunc("POST /token", p.token)
	mux.HandleFunc("GET /userinfo", p.userinfo)
	mux.HandleFunc("POST /revoke", p.revoke)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) issuer() string {
	return p.server.URL
}

func (p *fakeProvider) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]any{
		"issuer":                                p.issuer(),
		"authorization_endpoint":                p.issuer() + "/authorize",
		"token_endpoint":                        p.issuer() + "/token",
		"jwks_uri":                              p.issuer() + "/jwks",
		"userinfo_endpoint":                     p.issuer() + "/userinfo",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	}
	if !p.noRevoke {
		doc["revocation_endpoint"] = p.issuer() + "/revoke"
	}
	writeJSON(w, http.StatusOK, doc)
}

func (p *fakeProvider) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := p.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "password" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	username := r.PostForm.Get("username")
	account, ok := p.accounts[username]
	if !ok || account.password != r.PostForm.Get("password") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid user credentials"})
		return
	}

	now := time.Now()
	claims := jwtlib.MapClaims{
		"iss": p.issuer(),
		"aud": testClientID,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range account.claims {
		claims[k] = v
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	tok.Header["kid"] = testKeyID
	idToken, err := tok.SignedString(p.key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}

	access := "at-" + username
	p.mu.Lock()
	p.access[access] = username
	p.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"token_type":    "Bearer",
		"refresh_token": "rt-" + username,
		"expires_in":    3600,
		"id_token":      idToken,
	})
}

func (p *fakeProvider) userinfo(w http.ResponseWriter, r *http.Request) {
	access := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	p.mu.Lock()
	username, ok := p.access[access]
	p.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	claims := map[string]any{}
	for k, v := range p.accounts[username].claims {
		claims[k] = v
	}
	claims["given_name"] = "Jordan-Updated"
	writeJSON(w, http.StatusOK, claims)
}

func (p *fakeProvider) revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("client_id") != testClientID {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, r.PostForm.Get("token_type_hint")+":"+r.PostForm.Get("token"))
	delete(p.access, r.PostForm.Get("token"))
	w.WriteHeader(http.StatusOK)
}

func (p *fakeProvider) revokedTokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.revoked...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, p *fakeProvider, kv storage.KV) *oidcclient.Client {
	t.Helper()

	c, err := oidcclient.New(context.Background(), oidcclient.Config{
		Issuer:       p.issuer(),
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
	}, storage.KVTokenSource(kv),
		oidcclient.WithHTTPClient(p.server.Client()),
		oidcclient.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	ts := storage.KVTokenSource(memkv.New())
	ctx := context.Background()

	_, err := oidcclient.New(ctx, oidcclient.Config{ClientID: testClientID}, ts)
	require.Error(t, err)
	_, err = oidcclient.New(ctx, oidcclient.Config{Issuer: "http://idp"}, ts)
	require.Error(t, err)
	_, err = oidcclient.New(ctx, oidcclient.Config{Issuer: "http://idp", ClientID: testClientID}, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	p := newFakeProvider(t, false)
	c := newClient(t, p, memkv.New())

	resp, err := c.Login(context.Background(), "frontdesk@school.com", "frontdesk123")
	require.NoError(t, err)
	require.True(t, resp.Valid())
	require.Equal(t, "at-frontdesk@school.com", resp.Data.AccessToken)
	require.Equal(t, "rt-frontdesk@school.com", resp.Data.RefreshToken)

	u := resp.Data.User
	require.Equal(t, "idp-42", u.ID)
	require.Equal(t, users.RoleFrontDesk, u.Role)
	require.Equal(t, "Jordan Lee", u.FullName())
	require.Equal(t, "school-001", u.SchoolID)
	require.True(t, u.IsActive)
}

func TestLoginRejected(t *testing.T) {
	p := newFakeProvider(t, false)
	c := newClient(t, p, memkv.New())

	resp, err := c.Login(context.Background(), "frontdesk@school.com", "wrong")
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "Invalid user credentials", resp.Message)

	resp, err = c.Login(context.Background(), "contractor@school.com", "contractor123")
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, "Account has no dashboard role", resp.Message)
}

func TestFetchProfileAndLogout(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider(t, false)
	kv := memkv.New()
	c := newClient(t, p, kv)

	resp, err := c.Login(ctx, "frontdesk@school.com", "frontdesk123")
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.KeyAccessToken, resp.Data.AccessToken))
	require.NoError(t, kv.Set(ctx, storage.KeyRefreshToken, resp.Data.RefreshToken))

	profile, err := c.FetchProfile(ctx)
	require.NoError(t, err)
	require.True(t, profile.Valid())
	require.Equal(t, "Jordan-Updated", profile.Data.User.FirstName)

	update, err := c.UpdateProfile(ctx, users.ProfilePatch{Phone: utils.Ptr("555-0000")})
	require.NoError(t, err)
	require.False(t, update.Success)
	require.Equal(t, "Profile updates are not supported by the identity provider", update.Message)

	require.NoError(t, c.Logout(ctx))
	require.Equal(t, []string{
		"refresh_token:rt-frontdesk@school.com",
		"access_token:at-frontdesk@school.com",
	}, p.revokedTokens())

	_, err = c.FetchProfile(ctx)
	require.Error(t, err)
}

func TestLogoutWithContextToken(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider(t, false)
	c := newClient(t, p, memkv.New())

	tokCtx := authclient.WithToken(ctx, &oauth2.Token{AccessToken: "at-x", RefreshToken: "rt-x"})
	require.NoError(t, c.Logout(tokCtx))
	require.Equal(t, []string{"refresh_token:rt-x", "access_token:at-x"}, p.revokedTokens())
}

func TestLogoutWithoutRevocationEndpoint(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider(t, true)
	kv := memkv.NewWithValues(map[string]string{storage.KeyAccessToken: "at-x"})
	c := newClient(t, p, kv)

	require.ErrorIs(t, c.Logout(ctx), apperrors.ErrUnsupported)
	require.Empty(t, p.revokedTokens())
}
