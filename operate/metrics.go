package operate

import (
	"github.com/influxdata/hllop"
	"github.com/influxdata/hllop/kit/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// BuilderMetrics holds metrics related to the operation builder.
type BuilderMetrics struct {
	Operations *prometheus.CounterVec
	Errors     *prometheus.CounterVec
}

// NewBuilderMetrics returns an unregistered set of builder metrics.
func NewBuilderMetrics() *BuilderMetrics {
	const (
		namespace = "hllop"
		subsystem = "builder"
	)

	return &BuilderMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Number of operations appended to a batch",
		}, []string{"op"}),

		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Number of descriptors rejected by the builder",
		}, []string{"op", "code"}),
	}
}

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (m *BuilderMetrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Operations,
		m.Errors,
	}
}

func (m *BuilderMetrics) observe(code hllop.OpCode, err error) {
	if err != nil {
		m.Errors.WithLabelValues(code.String(), errors.ErrorCode(err)).Inc()
		return
	}
	m.Operations.WithLabelValues(code.String()).Inc()
}
