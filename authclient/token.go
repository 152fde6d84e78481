package authclient

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenKey struct{}

// WithToken returns a context whose authorized calls use tok instead of the client's
// token source. The session store uses it to log out with a token it has already
// removed from storage.
func WithToken(ctx context.Context, tok *oauth2.Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (*oauth2.Token, bool) {
	tok, ok := ctx.Value(tokenKey{}).(*oauth2.Token)
	return tok, ok && tok != nil && tok.AccessToken != ""
}

// TokenSource returns a static source for the token carried by ctx, or fallback.
func TokenSource(ctx context.Context, fallback oauth2.TokenSource) oauth2.TokenSource {
	if tok, ok := TokenFromContext(ctx); ok {
		return oauth2.StaticTokenSource(tok)
	}
	return fallback
}
