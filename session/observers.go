package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// MetricsObserver counts session events by kind.
type MetricsObserver struct {
	events *prometheus.CounterVec
}

var _ Observer = (*MetricsObserver)(nil)

// NewMetricsObserver registers visitor_session_events_total with reg. Every kind is
// pre-initialised so absent events export as zero.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visitor_session",
		Name:      "events_total",
		Help:      "Session events by kind.",
	}, []string{"kind"})
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	for _, kind := range EventKinds {
		events.WithLabelValues(string(kind))
	}
	return &MetricsObserver{events: events}, nil
}

func (m *MetricsObserver) OnSessionEvent(e Event) {
	m.events.WithLabelValues(string(e.Kind)).Inc()
}

// LogObserver turns events into user-facing log lines, the CLI's notification surface.
type LogObserver struct {
	logger zerolog.Logger
}

var _ Observer = (*LogObserver)(nil)

func NewLogObserver(logger zerolog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) OnSessionEvent(e Event) {
	switch e.Kind {
	case EventLoginSucceeded:
		l.logger.Info().Str("user", e.User.FullName()).Str("role", string(e.User.Role)).Msg("Welcome back")
	case EventLoginFailed:
		l.logger.Error().Msg(e.Message)
	case EventProfileUpdated:
		l.logger.Info().Msg("Profile updated")
	case EventProfileUpdateFailed:
		l.logger.Error().Msg(e.Message)
	case EventProfileRefreshed:
		l.logger.Debug().Str("user_id", e.User.ID).Msg("profile refreshed from server")
	case EventLoggedOut:
		l.logger.Info().Msg("Logged out")
	case EventSessionEnded:
		if e.Reason == ReasonInvalid {
			l.logger.Warn().Msg("Your session has expired. Please log in again.")
		} else {
			l.logger.Debug().Str("reason", string(e.Reason)).Msg("session ended")
		}
	}
}
