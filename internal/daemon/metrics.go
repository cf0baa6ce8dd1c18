package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metrics tracks daemon statistics as prometheus collectors on a private
// registry
type Metrics struct {
	registry *prometheus.Registry

	eventsSent       prometheus.Counter
	eventsReceived   prometheus.Counter
	eventsDropped    prometheus.Counter
	broadcastsTotal  prometheus.Counter
	sinkErrors       prometheus.Counter
	connectedClients prometheus.Gauge

	StartTime time.Time
}

// NewMetrics creates a new Metrics instance with its own registry
func NewMetrics() *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "op",
			Subsystem: "daemon",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		registry:        prometheus.NewRegistry(),
		eventsSent:      counter("events_sent_total", "Messages queued to connected clients."),
		eventsReceived:  counter("events_received_total", "Change events received from clients."),
		eventsDropped:   counter("events_dropped_total", "Events dropped because a queue was full."),
		broadcastsTotal: counter("broadcasts_total", "Change events broadcast to subscribers."),
		sinkErrors:      counter("sink_errors_total", "Events a sink failed to handle."),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "op",
			Subsystem: "daemon",
			Name:      "connected_clients",
			Help:      "Currently connected clients.",
		}),
		StartTime: time.Now(),
	}
	m.registry.MustRegister(
		m.eventsSent,
		m.eventsReceived,
		m.eventsDropped,
		m.broadcastsTotal,
		m.sinkErrors,
		m.connectedClients,
		collectors.NewGoCollector(),
	)
	return m
}

// Register adds extra collectors, such as the webhook dispatcher's
func (m *Metrics) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncEventsSent()     { m.eventsSent.Inc() }
func (m *Metrics) IncEventsReceived() { m.eventsReceived.Inc() }
func (m *Metrics) IncEventsDropped()  { m.eventsDropped.Inc() }
func (m *Metrics) IncBroadcasts()     { m.broadcastsTotal.Inc() }
func (m *Metrics) IncSinkErrors()     { m.sinkErrors.Inc() }

// SetConnectedClients sets the current connected clients count
func (m *Metrics) SetConnectedClients(count int) {
	m.connectedClients.Set(float64(count))
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EventsSent       int64     `json:"events_sent"`
	EventsReceived   int64     `json:"events_received"`
	EventsDropped    int64     `json:"events_dropped"`
	Broadcasts       int64     `json:"broadcasts"`
	SinkErrors       int64     `json:"sink_errors"`
	ConnectedClients int       `json:"connected_clients"`
	StartTime        time.Time `json:"start_time"`
	Uptime           string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsSent:       int64(value(m.eventsSent)),
		EventsReceived:   int64(value(m.eventsReceived)),
		EventsDropped:    int64(value(m.eventsDropped)),
		Broadcasts:       int64(value(m.broadcastsTotal)),
		SinkErrors:       int64(value(m.sinkErrors)),
		ConnectedClients: int(value(m.connectedClients)),
		StartTime:        m.StartTime,
		Uptime:           time.Since(m.StartTime).Round(time.Second).String(),
	}
}

// value reads the current value of a counter or gauge
func value(c prometheus.Metric) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	return 0
}
