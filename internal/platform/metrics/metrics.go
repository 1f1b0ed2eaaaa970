package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa los collectors del servicio. Se registran en el Registerer que pase el
// router para que tests puedan usar registries aislados.
type Metrics struct {
	writes   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	capacity prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_registry",
			Name:      "writes_total",
			Help:      "Write operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "farm_registry",
			Name:      "write_duration_seconds",
			Help:      "Duration of write transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		capacity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_registry",
			Name:      "capacity_rejections_total",
			Help:      "Animal inserts rejected because the farm was full.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.writes, m.duration, m.capacity)
	}
	return m
}

// ObserveWrite implementa farms.Metrics.
func (m *Metrics) ObserveWrite(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
	if outcome == "capacity" {
		m.capacity.Inc()
	}
}
