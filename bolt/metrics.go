package bolt

import (
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var _ prometheus.Collector = (*RecordStore)(nil)

var (
	recordsDesc = prometheus.NewDesc(
		"hllop_records_total",
		"Number of records in the store",
		nil, nil)

	boltWritesDesc = prometheus.NewDesc(
		"boltdb_writes_total",
		"Total number of boltdb writes",
		nil, nil)

	boltReadsDesc = prometheus.NewDesc(
		"boltdb_reads_total",
		"Total number of boltdb reads",
		nil, nil)
)

// PrometheusCollectors satisfies the prom.PrometheusCollector interface.
func (s *RecordStore) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{s}
}

// Describe returns all descriptions of the collector.
func (s *RecordStore) Describe(ch chan<- *prometheus.Desc) {
	ch <- recordsDesc
	ch <- boltWritesDesc
	ch <- boltReadsDesc
}

// Collect returns the current state of all metrics of the collector.
func (s *RecordStore) Collect(ch chan<- prometheus.Metric) {
	stats := s.db.Stats()
	writes := stats.TxStats.Write
	reads := stats.TxN

	ch <- prometheus.MustNewConstMetric(
		boltReadsDesc,
		prometheus.CounterValue,
		float64(reads),
	)

	ch <- prometheus.MustNewConstMetric(
		boltWritesDesc,
		prometheus.CounterValue,
		float64(writes),
	)

	records := 0
	if err := s.db.View(func(tx *bolt.Tx) error {
		records = tx.Bucket(recordsBucket).Stats().KeyN
		return nil
	}); err != nil {
		ch <- prometheus.NewInvalidMetric(recordsDesc, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		recordsDesc,
		prometheus.GaugeValue,
		float64(records),
	)
}
