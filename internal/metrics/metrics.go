// Package metrics collects Prometheus metrics for the sync core: how many
// operations were enqueued, replayed and failed, how many drain passes ran,
// and the current backlog/connectivity state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the sync-core metric instruments.
type Collector struct {
	opsEnqueued prometheus.Counter
	opsReplayed prometheus.Counter
	opsFailed   prometheus.Counter
	drains      prometheus.Counter

	opsPending prometheus.Gauge
	online     prometheus.Gauge
}

// NewCollector creates a Collector and registers its instruments with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		opsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_operations_enqueued_total",
			Help: "Total number of operations enqueued into the outbox",
		}),
		opsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_operations_replayed_total",
			Help: "Total number of operations replayed successfully",
		}),
		opsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_operations_failed_total",
			Help: "Total number of failed replay attempts",
		}),
		drains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sync_drains_total",
			Help: "Total number of drain passes started",
		}),
		opsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_operations_pending",
			Help: "Current number of operations waiting in the outbox",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sync_backend_online",
			Help: "1 when the remote backend is reachable, 0 otherwise",
		}),
	}

	reg.MustRegister(c.opsEnqueued, c.opsReplayed, c.opsFailed, c.drains, c.opsPending, c.online)

	return c
}

// RecordEnqueue records an operation appended to the outbox.
func (c *Collector) RecordEnqueue() {
	c.opsEnqueued.Inc()
}

// RecordReplayed records a successfully replayed operation.
func (c *Collector) RecordReplayed() {
	c.opsReplayed.Inc()
}

// RecordFailed records a failed replay attempt.
func (c *Collector) RecordFailed() {
	c.opsFailed.Inc()
}

// RecordDrain records the start of a drain pass.
func (c *Collector) RecordDrain() {
	c.drains.Inc()
}

// SetPending updates the outbox backlog gauge.
func (c *Collector) SetPending(n int) {
	c.opsPending.Set(float64(n))
}

// SetOnline updates the connectivity gauge.
func (c *Collector) SetOnline(online bool) {
	if online {
		c.online.Set(1)
	} else {
		c.online.Set(0)
	}
}

// Handler returns an HTTP handler exposing the given registry in the
// Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
