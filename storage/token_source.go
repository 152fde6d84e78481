package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// ErrNoAccessToken is returned by a KV token source when no session is persisted.
var ErrNoAccessToken = errors.New("no access token in persisted session")

type kvTokenSource struct {
	kv      KV
	timeout time.Duration
}

// KVTokenSource returns an oauth2.TokenSource that reads the bearer token from the
// access-token slot on every call, so API clients always authorize with whatever the
// session store last persisted. The refresh-token slot is carried along when present.
func KVTokenSource(kv KV) oauth2.TokenSource {
	return &kvTokenSource{kv: kv, timeout: 5 * time.Second}
}

func (ts *kvTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ts.timeout)
	defer cancel()

	access, ok, err := ts.kv.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[KVTokenSource.Token] kv.Get")
	}
	if !ok || access == "" {
		return nil, ErrNoAccessToken
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if refresh, ok, err := ts.kv.Get(ctx, KeyRefreshToken); err == nil && ok {
		tok.RefreshToken = refresh
	}
	return tok, nil
}
