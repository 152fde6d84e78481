package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetSessionStore() string {
	return strings.ToLower(GetEnv("SESSION_STORE", StoreFile))
}

// GetSessionFile defaults to ~/.visitor-session/session.json, or ./session.json when
// the home directory cannot be resolved.
func (Storage) GetSessionFile() string {
	if f := GetEnv("SESSION_FILE", ""); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".visitor-session", "session.json")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "visitor-session:")
}

func (Storage) GetDatabaseDSN() string {
	return GetEnv("DATABASE_DSN", "")
}
