package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRelayMetricsObserve(t *testing.T) {
	m := NewRelayMetrics(nil)
	m.ObserveInbound("text", "ok")
	m.ObserveReply("ok")
	m.ObserveCompletionLatency("text", 0.5)
}

func TestRelayMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRelayMetrics(reg)
	m.ObserveInbound("image", "fallback")
	m.ObserveCompletionLatency("image", 1.2)
}

func TestRelayMetricsNilSafe(t *testing.T) {
	var m *RelayMetrics
	m.ObserveInbound("text", "ok")
	m.ObserveReply("error")
	m.ObserveCompletionLatency("text", 0.1)
}
