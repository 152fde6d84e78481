package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

// GetLogoutRedirectDelay is how long after logout the session-ended event is delivered,
// leaving any in-flight feedback visible before navigation.
func (Session) GetLogoutRedirectDelay() time.Duration {
	return GetDurationEnv("LOGOUT_REDIRECT_DELAY", time.Second)
}

// GetMetricsTextfile is where session event counters are written on exit, in the
// Prometheus textfile-collector format. Empty disables it.
func (Session) GetMetricsTextfile() string {
	return GetEnv("SESSION_METRICS_TEXTFILE", "")
}

type MockAPI struct{}

var _ MockAPIConfig = MockAPI{}

func (MockAPI) GetMockJWTSecret() string {
	return GetEnv("MOCK_JWT_SECRET", "visitor-dashboard-dev-secret")
}

func (MockAPI) GetMockTokenTTL() time.Duration {
	return GetDurationEnv("MOCK_TOKEN_TTL", time.Hour)
}
