package host

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitter"

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

type metrics struct {
	operations *prometheus.CounterVec
	dropped    prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Number of ledger operations by result",
		}, []string{"operation", "status"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_remainder_total",
			Help:      "Sum of odd units of deposits not credited to any recipient",
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.operations, m.dropped} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) observe(op string, err error) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	m.operations.WithLabelValues(op, status).Inc()
}
