package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/visitor-session/authclient"
	"github.com/jrsteele09/visitor-session/users"
)

// Dashboard API paths
const (
	PathLogin   = "/api/auth/login"
	PathProfile = "/api/auth/profile"
	PathLogout  = "/api/auth/logout"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

var _ authclient.Client = (*Client)(nil)

// Client talks JSON to the dashboard auth API. Authorized calls take their bearer
// token from the injected oauth2.TokenSource.
type Client struct {
	baseURL    string
	public     *http.Client
	authorized *http.Client
	transport  *oauth2.Transport
	logger     zerolog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.public.Timeout = d
		c.authorized.Timeout = d
	}
}

// WithHTTPClient sets the base transport, e.g. an httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.public.Transport = hc.Transport
		c.transport.Base = hc.Transport
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, tokens oauth2.TokenSource, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[httpclient.New] baseURL is required")
	}
	if tokens == nil {
		return nil, errors.New("[httpclient.New] token source is required")
	}

	transport := &oauth2.Transport{Source: tokens}
	c := &Client{
		baseURL:    baseURL,
		public:     &http.Client{},
		authorized: &http.Client{Transport: transport},
		transport:  transport,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*authclient.LoginResponse, error) {
	var resp authclient.LoginResponse
	if err := c.do(ctx, c.public, http.MethodPost, PathLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return &resp, nil
}

func (c *Client) FetchProfile(ctx context.Context) (*authclient.ProfileResponse, error) {
	var resp authclient.ProfileResponse
	if err := c.do(ctx, c.authorizedClient(ctx), http.MethodGet, PathProfile, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.FetchProfile]")
	}
	return &resp, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patch users.ProfilePatch) (*authclient.ProfileResponse, error) {
	var resp authclient.ProfileResponse
	if err := c.do(ctx, c.authorizedClient(ctx), http.MethodPut, PathProfile, patch, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateProfile]")
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, c.authorizedClient(ctx), http.MethodPost, PathLogout, nil, &resp); err != nil {
		return errors.Wrap(err, "[Client.Logout]")
	}
	if !resp.Success {
		return errors.Errorf("[Client.Logout] %s", resp.Message)
	}
	return nil
}

// authorizedClient honours a token carried by ctx (authclient.WithToken) over the
// configured token source.
func (c *Client) authorizedClient(ctx context.Context) *http.Client {
	if _, ok := authclient.TokenFromContext(ctx); !ok {
		return c.authorized
	}
	return &http.Client{
		Timeout: c.authorized.Timeout,
		Transport: &oauth2.Transport{
			Source: authclient.TokenSource(ctx, c.transport.Source),
			Base:   c.transport.Base,
		},
	}
}

// do sends body as JSON and decodes the envelope into out. Error statuses that still
// carry a JSON envelope decode normally, leaving Success false for the caller.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", res.StatusCode).
		Msg("dashboard api call")

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "unexpected %d response", res.StatusCode)
	}
	return nil
}
