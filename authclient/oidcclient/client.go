package oidcclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/visitor-session/authclient"
	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNoRole             = "Account has no dashboard role"
	msgUpdateUnsupported  = "Profile updates are not supported by the identity provider"
)

var _ authclient.Client = (*Client)(nil)

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	Scopes       []string // defaults to openid, profile, email, offline_access
}

// Client authenticates against an OpenID Connect provider with the resource-owner
// password grant. Identity comes from the verified ID token at login and from the
// UserInfo endpoint on revalidation.
type Client struct {
	provider      *oidc.Provider
	verifier      *oidc.IDTokenVerifier
	oauth         *oauth2.Config
	tokens        oauth2.TokenSource
	revocationURL string
	httpClient    *http.Client
	logger        zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New discovers the provider at cfg.Issuer. tokens supplies the current session's
// tokens for UserInfo and revocation.
func New(ctx context.Context, cfg Config, tokens oauth2.TokenSource, options ...Option) (*Client, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("[oidcclient.New] issuer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[oidcclient.New] client id is required")
	}
	if tokens == nil {
		return nil, errors.New("[oidcclient.New] token source is required")
	}

	c := &Client{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	provider, err := oidc.NewProvider(c.clientContext(ctx), cfg.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[oidcclient.New] failed to create OIDC provider")
	}

	var discovery struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&discovery); err != nil {
		return nil, errors.Wrap(err, "[oidcclient.New] provider.Claims")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	c.provider = provider
	c.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	c.revocationURL = discovery.RevocationEndpoint
	c.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}
	return c, nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.httpClient)
}

func (c *Client) Login(ctx context.Context, email, password string) (*authclient.LoginResponse, error) {
	ctx = c.clientContext(ctx)

	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && isCredentialRejection(re) {
			msg := re.ErrorDescription
			if msg == "" {
				msg = msgInvalidCredentials
			}
			return authclient.LoginFailure(msg), nil
		}
		return nil, errors.Wrap(err, "[Client.Login] PasswordCredentialsToken")
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("[Client.Login] no id_token in token response")
	}
	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login] ID token verification failed")
	}

	var claims identityClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[Client.Login] failed to extract claims")
	}
	user, err := claims.user()
	if err != nil {
		c.logger.Warn().Err(err).Str("sub", idToken.Subject).Msg("oidc login rejected")
		return authclient.LoginFailure(msgNoRole), nil
	}

	return &authclient.LoginResponse{
		Success: true,
		Data: &authclient.LoginData{
			User:         user,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
		},
	}, nil
}

func (c *Client) FetchProfile(ctx context.Context) (*authclient.ProfileResponse, error) {
	info, err := c.provider.UserInfo(c.clientContext(ctx), authclient.TokenSource(ctx, c.tokens))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.FetchProfile] UserInfo")
	}

	var claims identityClaims
	if err := info.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[Client.FetchProfile] failed to extract claims")
	}
	user, err := claims.user()
	if err != nil {
		return authclient.ProfileFailure(msgNoRole), nil
	}
	return &authclient.ProfileResponse{Success: true, Data: &authclient.ProfileData{User: user}}, nil
}

// UpdateProfile always fails: profile attributes are owned by the identity provider.
func (c *Client) UpdateProfile(_ context.Context, _ users.ProfilePatch) (*authclient.ProfileResponse, error) {
	return authclient.ProfileFailure(msgUpdateUnsupported), nil
}

// Logout revokes the refresh and access tokens (RFC 7009) when the provider
// advertises a revocation endpoint.
func (c *Client) Logout(ctx context.Context) error {
	if c.revocationURL == "" {
		return apperrors.ErrUnsupported
	}
	tok, err := authclient.TokenSource(ctx, c.tokens).Token()
	if err != nil {
		return errors.Wrap(err, "[Client.Logout] token source")
	}

	var firstErr error
	revoke := func(token, hint string) {
		if token == "" {
			return
		}
		if err := c.revoke(ctx, token, hint); err != nil {
			c.logger.Debug().Err(err).Str("token_type", hint).Msg("failed to revoke token")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	revoke(tok.RefreshToken, "refresh_token")
	revoke(tok.AccessToken, "access_token")
	return firstErr
}

func (c *Client) revoke(ctx context.Context, token, hint string) error {
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", hint)
	form.Set("client_id", c.oauth.ClientID)
	if c.oauth.ClientSecret != "" {
		form.Set("client_secret", c.oauth.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[Client.revoke] build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.revoke]")
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("[Client.revoke] unexpected status %d", res.StatusCode)
	}
	return nil
}

func isCredentialRejection(re *oauth2.RetrieveError) bool {
	if re.ErrorCode == "invalid_grant" {
		return true
	}
	return re.Response != nil && (re.Response.StatusCode == http.StatusUnauthorized || re.Response.StatusCode == http.StatusBadRequest)
}
