package mockapi

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrsteele09/visitor-session/authclient/httpclient"
)

// Route path constants
const (
	RouteLogin   = httpclient.PathLogin
	RouteProfile = httpclient.PathProfile
	RouteLogout  = httpclient.PathLogout
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("PUT "+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth)...))

	// CORS preflight
	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
