package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the relay's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RoomsActive       prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	Messages          *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	RoomsDestroyed    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "metromanic",
			Name:      "rooms_active",
			Help:      "Rooms currently held by the relay.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "metromanic",
			Name:      "connections_active",
			Help:      "Open WebSocket connections.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metromanic",
			Name:      "messages_total",
			Help:      "Inbound relay messages by event.",
		}, []string{"event"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metromanic",
			Name:      "rejections_total",
			Help:      "Inbound messages rejected, by error code.",
		}, []string{"code"}),
		RoomsDestroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metromanic",
			Name:      "rooms_destroyed_total",
			Help:      "Rooms destroyed, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.RoomsActive, m.ConnectionsActive, m.Messages, m.Rejections, m.RoomsDestroyed)
	}
	return m
}

func (m *Metrics) Message(event string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(event).Inc()
}

func (m *Metrics) Rejected(code string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(code).Inc()
}

func (m *Metrics) RoomDestroyed(reason string) {
	if m == nil {
		return
	}
	m.RoomsDestroyed.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.RoomsActive.Set(float64(n))
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.ConnectionsActive.Dec()
}
