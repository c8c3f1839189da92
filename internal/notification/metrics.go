package notification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dispatcher outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	deliveries    *prometheus.CounterVec
	closeFailures prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the dispatcher collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mailnotify",
			Name:      "deliveries_total",
			Help:      "Delivery attempts by status and failure reason.",
		}, []string{"status", "reason"}),
		closeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mailnotify",
			Name:      "transport_close_failures_total",
			Help:      "Transport close calls that returned an error.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mailnotify",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent in a single delivery attempt.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"status"}),
	}
	reg.MustRegister(m.deliveries, m.closeFailures, m.duration)
	return m
}

func (m *Metrics) observe(res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(res.Status(), res.Reason.String()).Inc()
	m.duration.WithLabelValues(res.Status()).Observe(elapsed.Seconds())
	if res.CloseErr != nil {
		m.closeFailures.Inc()
	}
}
