package network

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/minegate/minegate-node/pkg/protocol"
)

// Metrics holds the gateway-level Prometheus collectors. All Record
// helpers are cheap enough for the packet path.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge

	PacketsTotal *prometheus.CounterVec
	BytesTotal   *prometheus.CounterVec
	UnknownTotal *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec

	LoginDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),

		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "connections_active",
			Help:      "Number of live connections",
		}),

		PacketsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "packets_total",
			Help:      "Total number of packets by phase and direction",
		}, []string{"phase", "direction"}),

		BytesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "bytes_total",
			Help:      "Total wire bytes by direction",
		}, []string{"direction"}),

		UnknownTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "unknown_packets_total",
			Help:      "Total number of frames with unregistered wire ids",
		}, []string{"phase"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "errors_total",
			Help:      "Total number of connection errors by kind",
		}, []string{"kind"}),

		LoginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minegate",
			Subsystem: "gateway",
			Name:      "login_duration_seconds",
			Help:      "Duration of completed logins",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ConnOpened records an accepted connection.
func (m *Metrics) ConnOpened() {
	m.ConnectionsTotal.Inc()
	m.ConnectionsActive.Inc()
}

// ConnClosed records a finished connection.
func (m *Metrics) ConnClosed() {
	m.ConnectionsActive.Dec()
}

// RecordPacket records one processed packet.
func (m *Metrics) RecordPacket(phase protocol.Phase, dir protocol.Direction) {
	m.PacketsTotal.WithLabelValues(phase.String(), dir.String()).Inc()
}

// RecordBytes records wire bytes moved in one direction.
func (m *Metrics) RecordBytes(dir protocol.Direction, n int) {
	m.BytesTotal.WithLabelValues(dir.String()).Add(float64(n))
}

// RecordUnknown records a frame with no registry row.
func (m *Metrics) RecordUnknown(phase protocol.Phase) {
	m.UnknownTotal.WithLabelValues(phase.String()).Inc()
}

// RecordError records a fatal connection error.
func (m *Metrics) RecordError(kind string) {
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordLogin records the duration of a completed login.
func (m *Metrics) RecordLogin(d time.Duration) {
	m.LoginDuration.Observe(d.Seconds())
}
