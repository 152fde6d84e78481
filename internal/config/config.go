package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	APIConfig
	StorageConfig
	SessionConfig
	MockAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// APIConfig selects and configures the remote auth capability used by the session store.
type APIConfig interface {
	GetAuthProvider() string
	GetDashboardAPIURL() string
	GetAPITimeout() time.Duration
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
}

// StorageConfig selects the durable key-value backend holding the persisted session.
type StorageConfig interface {
	GetSessionStore() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisKeyPrefix() string
	GetDatabaseDSN() string
}

type SessionConfig interface {
	GetLogoutRedirectDelay() time.Duration
	GetMetricsTextfile() string
}

type MockAPIConfig interface {
	GetMockJWTSecret() string
	GetMockTokenTTL() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	API
	Storage
	Session
	MockAPI
}

func New() Config {
	return mainConfig{}
}
