package hooks

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports client metrics to Prometheus.
type PrometheusMetrics struct {
	duration      *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	uploadedBytes prometheus.Counter
}

// NewPrometheusMetrics registers the client's metrics with reg (the default
// registerer when nil). Already registered collectors are reused.
func NewPrometheusMetrics(namespace string, reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if namespace == "" {
		namespace = "image_client"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of image API operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed image API operations by category.",
		}, []string{"operation", "category"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Payload bytes sent in upload requests.",
		}),
	}

	var err error
	m.duration, err = register(reg, m.duration)
	if err != nil {
		return nil, err
	}
	m.errors, err = register(reg, m.errors)
	if err != nil {
		return nil, err
	}
	m.uploadedBytes, err = register(reg, m.uploadedBytes)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register image client metric: %w", err)
	}
	return c, nil
}

func (m *PrometheusMetrics) RecordOperationTime(op string, d time.Duration) {
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordUploadBytes(bytes int64) {
	m.uploadedBytes.Add(float64(bytes))
}

func (m *PrometheusMetrics) RecordError(op string, category string) {
	m.errors.WithLabelValues(op, category).Inc()
}
