package scan

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	blockOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanbadblocks",
			Name:      "block_operations_total",
			Help:      "Total number of block reads and writes issued.",
		},
		[]string{"direction"})
	blockErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanbadblocks",
			Name:      "block_errors_total",
			Help:      "Total number of blocks that failed, either due to an I/O error or due to a content mismatch.",
		},
		[]string{"direction", "kind"})
	bytesTransferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanbadblocks",
			Name:      "bytes_transferred_total",
			Help:      "Total number of bytes read from or written to the device successfully.",
		},
		[]string{"direction"})
	blockDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scanbadblocks",
			Name:      "block_duration_seconds",
			Help:      "Amount of time spent per successful block operation, in seconds.",
			Buckets:   prometheus.ExponentialBucketsRange(1e-5, 100, 15),
		},
		[]string{"direction"})
)

// Registry contains the metrics of all scans performed by this process.
// It is kept separate from the default registry, so that exported
// metrics only contain scan data.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(blockOperationsTotal)
	Registry.MustRegister(blockErrorsTotal)
	Registry.MustRegister(bytesTransferredTotal)
	Registry.MustRegister(blockDurationSeconds)
}

type passMetrics struct {
	operations prometheus.Counter
	ioErrors   prometheus.Counter
	dataErrors prometheus.Counter
	bytes      prometheus.Counter
	duration   prometheus.Observer
}

func newPassMetrics(d Direction) passMetrics {
	direction := d.String()
	return passMetrics{
		operations: blockOperationsTotal.WithLabelValues(direction),
		ioErrors:   blockErrorsTotal.WithLabelValues(direction, "io"),
		dataErrors: blockErrorsTotal.WithLabelValues(direction, "data"),
		bytes:      bytesTransferredTotal.WithLabelValues(direction),
		duration:   blockDurationSeconds.WithLabelValues(direction),
	}
}
