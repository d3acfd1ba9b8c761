package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	activeConnections prometheus.Gauge
	connectsTotal     prometheus.Counter
	framesTotal       *prometheus.CounterVec
	droppedFrames     prometheus.Counter
	deliveredTotal    prometheus.Counter
	pushFailures      prometheus.Counter
}

// NewMetrics registers the websocket metrics on reg (the default
// registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voxchat_connections_active",
			Help: "Current number of live websocket connections.",
		}),
		connectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxchat_connections_total",
			Help: "Total websocket connections accepted since start.",
		}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voxchat_frames_total",
			Help: "Inbound frames processed, by frame type.",
		}, []string{"type"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxchat_frames_dropped_total",
			Help: "Inbound frames dropped as malformed.",
		}),
		deliveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxchat_pushes_total",
			Help: "Outbound frames accepted onto a session queue.",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxchat_push_failures_total",
			Help: "Outbound pushes rejected by a closed or backlogged session.",
		}),
	}

	reg.MustRegister(
		m.activeConnections,
		m.connectsTotal,
		m.framesTotal,
		m.droppedFrames,
		m.deliveredTotal,
		m.pushFailures,
	)
	return m
}

func (m *Metrics) incConnection() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
	m.connectsTotal.Inc()
}

func (m *Metrics) decConnection() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

func (m *Metrics) incFrame(frameType string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(frameType).Inc()
}

func (m *Metrics) incDroppedFrame() {
	if m == nil {
		return
	}
	m.droppedFrames.Inc()
}

func (m *Metrics) incDelivered() {
	if m == nil {
		return
	}
	m.deliveredTotal.Inc()
}

func (m *Metrics) incPushFailure() {
	if m == nil {
		return
	}
	m.pushFailures.Inc()
}
