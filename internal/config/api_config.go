package config

import (
	"strings"
	"time"
)

const (
	AuthProviderAPI  = "api"
	AuthProviderOIDC = "oidc"
)

type API struct{}

var _ APIConfig = API{}

// GetAuthProvider is either "api" (dashboard REST API) or "oidc".
func (API) GetAuthProvider() string {
	return strings.ToLower(GetEnv("AUTH_PROVIDER", AuthProviderAPI))
}

func (API) GetDashboardAPIURL() string {
	return strings.TrimRight(GetEnv("DASHBOARD_API_URL", "http://localhost:8080"), "/")
}

func (API) GetAPITimeout() time.Duration {
	return GetDurationEnv("API_TIMEOUT", 10*time.Second)
}

func (API) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (API) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "visitor-dashboard")
}

func (API) GetOIDCClientSecret() string {
	return GetEnv("OIDC_CLIENT_SECRET", "")
}
