package storage

import (
	"context"
)

// Keys of the three persisted session slots.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// SessionKeys lists every slot owned by the session store.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// KV is the durable string key-value capability that holds the persisted session.
// Removing a key that does not exist is not an error.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Remove deletes key
	Remove(ctx context.Context, key string) error
}
