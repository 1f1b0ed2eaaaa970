package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveWrite(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveWrite("create_animal", "ok", 3*time.Millisecond)
	m.ObserveWrite("create_animal", "capacity", time.Millisecond)
	m.ObserveWrite("create_animal", "capacity", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("create_animal", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.writes.WithLabelValues("create_animal", "capacity")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.capacity))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveWrite("delete_farm", "ok", 0)
}
