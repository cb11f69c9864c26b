// Package metrics provides local, in-process instrumentation for a single
// connection's request processing. It does not expose an HTTP scrape
// endpoint (see DESIGN.md); callers register a *Connection with their own
// exporter, or read its values directly for tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Connection holds the four counters/gauges kept per accepted connection.
type Connection struct {
	Accepted  prometheus.Counter
	Rejected  prometheus.Counter
	Completed prometheus.Counter
	QueueSize prometheus.Gauge
}

// NewConnection constructs a fresh, unregistered set of per-connection
// metrics. Registering them with a prometheus.Registerer is left to the
// caller, since a default global registry would leak state across the
// connections a future multi-client revision might accept; cmd/server
// does not register them.
func NewConnection() *Connection {
	return &Connection{
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqfifo_requests_accepted_total",
			Help: "Requests admitted into the bounded queue.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqfifo_requests_rejected_total",
			Help: "Requests rejected because the bounded queue was full.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reqfifo_requests_completed_total",
			Help: "Requests that ran to completion and received ack=0.",
		}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reqfifo_queue_depth",
			Help: "Queue depth sampled after each completed request.",
		}),
	}
}

// Collectors returns the four metrics as a slice, for bulk registration.
func (c *Connection) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.Accepted, c.Rejected, c.Completed, c.QueueSize}
}
