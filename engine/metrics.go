package engine

import (
	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds metrics related to applying operations.
type Metrics struct {
	Applied *prometheus.CounterVec
}

// NewMetrics returns an unregistered set of engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hllop",
			Subsystem: "engine",
			Name:      "apply_total",
			Help:      "Number of operations applied to a record, by result",
		}, []string{"op", "result"}),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.Applied}
}

func (m *Metrics) observe(code hllop.OpCode, err error) {
	result := "success"
	if err != nil {
		result = errors.ErrorCode(err)
	}
	m.Applied.WithLabelValues(code.String(), result).Inc()
}
