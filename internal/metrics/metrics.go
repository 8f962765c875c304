// Package metrics holds the Prometheus metrics exported by dcs-check serve.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values for check results.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
)

// Metrics holds the check and request metrics.
type Metrics struct {
	checks          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg (if not nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcscheck",
			Name:      "checks_total",
			Help:      "Total number of checks run, by check, result and (for failed envelope checks) the stage that failed.",
		}, []string{"check", "result", "failed_stage", "error_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dcscheck",
			Name:      "http_request_duration_seconds",
			Help:      "Time to handle an HTTP request by route, method and status code.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.checks, m.requestDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// RecordCheck counts one check. failedStage and errorCode are empty for a valid result.
func (m *Metrics) RecordCheck(check string, valid bool, failedStage, errorCode string) {
	if m == nil {
		return
	}
	result := ResultValid
	if !valid {
		result = ResultInvalid
	}
	m.checks.WithLabelValues(check, result, failedStage, errorCode).Inc()
}

// ObserveRequest records the duration of one request. route is the route pattern, not the raw path.
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(duration.Seconds())
}
