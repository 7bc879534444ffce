package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the webhook relay flow.
type RelayMetrics struct {
	inboundTotal      *prometheus.CounterVec
	repliesTotal      *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linegpt",
			Subsystem: "webhook",
			Name:      "inbound_events_total",
			Help:      "Total inbound LINE webhook events",
		}, []string{"kind", "status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linegpt",
			Subsystem: "webhook",
			Name:      "replies_total",
			Help:      "Total outbound LINE replies",
		}, []string{"status"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "linegpt",
			Subsystem: "completion",
			Name:      "latency_seconds",
			Help:      "Latency of LLM completion calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.repliesTotal, m.completionLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(kind, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *RelayMetrics) ObserveReply(status string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveCompletionLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(kind).Observe(seconds)
}
