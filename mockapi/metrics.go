package mockapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

type apiMetrics struct {
	logins         *prometheus.CounterVec
	profileUpdates prometheus.Counter
	logouts        prometheus.Counter
}

func newAPIMetrics(reg prometheus.Registerer) (*apiMetrics, error) {
	m := &apiMetrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "visitor_mockapi",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		profileUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visitor_mockapi",
			Name:      "profile_updates_total",
			Help:      "Successful profile updates.",
		}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "visitor_mockapi",
			Name:      "logouts_total",
			Help:      "Logouts.",
		}),
	}
	for _, c := range []prometheus.Collector{m.logins, m.profileUpdates, m.logouts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
