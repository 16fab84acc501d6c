package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the session collectors. A nil *Metrics records nothing.
type Metrics struct {
	created  *prometheus.CounterVec
	elevated prometheus.Counter
	expired  prometheus.Counter
	failures *prometheus.CounterVec
	active   prometheus.Gauge
}

// NewMetrics creates the session collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filefly",
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Sessions created, by kind.",
		}, []string{"kind"}),
		elevated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filefly",
			Subsystem: "sessions",
			Name:      "elevated_total",
			Help:      "Successful session elevations.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filefly",
			Subsystem: "sessions",
			Name:      "expired_total",
			Help:      "Sessions removed by the expiry sweep.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filefly",
			Subsystem: "sessions",
			Name:      "failures_total",
			Help:      "Failed session operations, by operation and error code.",
		}, []string{"op", "code"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filefly",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Live sessions in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.elevated, m.expired, m.failures, m.active)
	}
	return m
}

func (m *Metrics) onCreate(kind Kind, live int) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(kind)).Inc()
	m.active.Set(float64(live))
}

func (m *Metrics) onElevate() {
	if m == nil {
		return
	}
	m.elevated.Inc()
}

func (m *Metrics) onSweep(removed, live int) {
	if m == nil {
		return
	}
	m.expired.Add(float64(removed))
	m.active.Set(float64(live))
}

func (m *Metrics) onFailure(op string, kind error) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, kind.Error()).Inc()
}
