package rediskv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/visitor-session/storage"
)

var _ storage.KV = (*Store)(nil)

const defaultPrefix = "visitor-session:"

// Store keeps the persisted session in Redis, one string key per slot.
type Store struct {
	client *redis.Client
	prefix string
}

type Option func(*Store)

// WithPrefix namespaces keys, so several dashboards can share one Redis.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(client *redis.Client, options ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Connect dials addr and pings it before returning the store.
func Connect(ctx context.Context, addr, password string, options ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[rediskv.Connect] ping")
	}
	return New(client, options...), nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[rediskv.Get] %s", key)
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errors.Wrapf(err, "[rediskv.Set] %s", key)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "[rediskv.Remove] %s", key)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
