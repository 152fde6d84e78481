package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/authclient"
	"github.com/jrsteele09/visitor-session/authclient/httpclient"
	"github.com/jrsteele09/visitor-session/authclient/oidcclient"
	"github.com/jrsteele09/visitor-session/internal/config"
	"github.com/jrsteele09/visitor-session/storage"
	"github.com/jrsteele09/visitor-session/storage/filekv"
	"github.com/jrsteele09/visitor-session/storage/memkv"
	"github.com/jrsteele09/visitor-session/storage/pgkv"
	"github.com/jrsteele09/visitor-session/storage/rediskv"
)

// openKV opens the configured session backend. The returned close func is never nil.
func openKV(ctx context.Context, c config.StorageConfig) (storage.KV, func(), error) {
	noop := func() {}

	switch backend := c.GetSessionStore(); backend {
	case config.StoreFile:
		kv, err := filekv.Open(c.GetSessionFile())
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("path", kv.Path()).Msg("using file session store")
		return kv, noop, nil

	case config.StoreRedis:
		kv, err := rediskv.Connect(ctx, c.GetRedisAddr(), c.GetRedisPassword(), rediskv.WithPrefix(c.GetRedisKeyPrefix()))
		if err != nil {
			return nil, noop, err
		}
		return kv, func() { _ = kv.Close() }, nil

	case config.StorePostgres:
		if c.GetDatabaseDSN() == "" {
			return nil, noop, errors.New("DATABASE_DSN is required for the postgres session store")
		}
		kv, err := pgkv.Connect(ctx, c.GetDatabaseDSN())
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil

	case config.StoreMemory:
		log.Warn().Msg("memory session store does not outlive this command")
		return memkv.New(), noop, nil

	default:
		return nil, noop, errors.Errorf("unknown SESSION_STORE %q", backend)
	}
}

// newClient builds the configured auth client. Both implementations read the bearer
// token from kv, so they always see what the session store last persisted.
func newClient(ctx context.Context, c config.APIConfig, kv storage.KV) (authclient.Client, error) {
	tokens := storage.KVTokenSource(kv)

	switch provider := c.GetAuthProvider(); provider {
	case config.AuthProviderAPI:
		return httpclient.New(c.GetDashboardAPIURL(), tokens, httpclient.WithTimeout(c.GetAPITimeout()))

	case config.AuthProviderOIDC:
		ctx, cancel := context.WithTimeout(ctx, c.GetAPITimeout())
		defer cancel()
		return oidcclient.New(ctx, oidcclient.Config{
			Issuer:       c.GetOIDCIssuer(),
			ClientID:     c.GetOIDCClientID(),
			ClientSecret: c.GetOIDCClientSecret(),
		}, tokens)

	default:
		return nil, errors.Errorf("unknown AUTH_PROVIDER %q", provider)
	}
}
