package prom_test

import (
	"bytes"
	"testing"

	"github.com/influxdata/hllop/kit/prom"
	"github.com/influxdata/hllop/kit/prom/promtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockCollector struct {
	counter prometheus.Counter
}

func (c mockCollector) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{c.counter}
}

func TestRegistry(t *testing.T) {
	reg := prom.NewRegistry(zaptest.NewLogger(t))
	c := mockCollector{counter: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hllop_test_total",
		Help: "test counter",
	})}
	reg.MustRegister(c)
	c.counter.Add(3)

	assert.Equal(t, float64(3), promtest.MustCounterValue(t, reg, "hllop_test_total", nil))

	var buf bytes.Buffer
	require.NoError(t, reg.WriteText(&buf))
	assert.Contains(t, buf.String(), "hllop_test_total 3")
}
