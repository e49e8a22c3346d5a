package nextion

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a protocol instance.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	frames          *prometheus.CounterVec
	touchEvents     prometheus.Counter
	pageChanges     prometheus.Counter
	malformedFrames prometheus.Counter
	bytesRead       prometheus.Counter
	bytesWritten    prometheus.Counter
	commands        prometheus.Counter
	transportErrors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Use prometheus.DefaultRegisterer for the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	const ns = "nextion"

	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "frames_total",
			Help:      "Frames received from the display by tag",
		}, []string{"tag"}),
		touchEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "touch_events_total",
			Help:      "Touch events received",
		}),
		pageChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "page_changes_total",
			Help:      "Page events received",
		}),
		malformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "malformed_frames_total",
			Help:      "Frames with a known tag but missing fields",
		}),
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bytes_read_total",
			Help:      "Bytes read from the transport",
		}),
		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bytes_written_total",
			Help:      "Bytes written to the transport",
		}),
		commands: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "commands_total",
			Help:      "Commands written to the display",
		}),
		transportErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "transport_errors_total",
			Help:      "Transport failures by operation",
		}, []string{"op"}),
	}
}

func (m *Metrics) frame(tag byte, ok bool) {
	if m == nil {
		return
	}
	l := "none"
	if ok {
		l = fmt.Sprintf("%02x", tag)
	}
	m.frames.WithLabelValues(l).Inc()
}

func (m *Metrics) touch() {
	if m != nil {
		m.touchEvents.Inc()
	}
}

func (m *Metrics) pageChange() {
	if m != nil {
		m.pageChanges.Inc()
	}
}

func (m *Metrics) malformed() {
	if m != nil {
		m.malformedFrames.Inc()
	}
}

func (m *Metrics) read(n int) {
	if m != nil && n > 0 {
		m.bytesRead.Add(float64(n))
	}
}

func (m *Metrics) written(n int) {
	if m != nil && n > 0 {
		m.bytesWritten.Add(float64(n))
	}
}

func (m *Metrics) command() {
	if m != nil {
		m.commands.Inc()
	}
}

func (m *Metrics) transportError(op string) {
	if m != nil {
		m.transportErrors.WithLabelValues(op).Inc()
	}
}
