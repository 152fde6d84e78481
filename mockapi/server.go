package mockapi

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/internal/config"
)

// Server exposes a Backend as the dashboard auth API.
type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	backend  *Backend
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *apiMetrics
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(cfg config.Config, backend *Backend, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[mockapi.New] config is required")
	}
	if backend == nil {
		return nil, errors.New("[mockapi.New] backend is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		backend:  backend,
		logger:   log.Logger,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range options {
		opt(s)
	}

	metrics, err := newAPIMetrics(s.registry)
	if err != nil {
		return nil, errors.Wrap(err, "[mockapi.New] metrics")
	}
	s.metrics = metrics

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logger.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.logger.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
