package sbomerapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics builds the client collectors and registers them on reg when it
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sbomer_client_requests_total",
			Help: "Requests issued to the SBOMer API.",
		}, []string{"api", "endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sbomer_client_request_duration_seconds",
			Help:    "Latency of requests issued to the SBOMer API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"api", "endpoint"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}
	return m
}

func (m *Metrics) observe(api APIVersion, endpoint, code string, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(api), endpoint, code).Inc()
	m.duration.WithLabelValues(string(api), endpoint).Observe(took.Seconds())
}
