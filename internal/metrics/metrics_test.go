package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.RecordCheck("jose", true, "", "")
	m.RecordCheck("jose", false, "JWE", "decryption")
	m.RecordCheck("jose", false, "JWE", "decryption")

	if got := testutil.ToFloat64(m.checks.WithLabelValues("jose", ResultValid, "", "")); got != 1 {
		t.Errorf("valid checks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.checks.WithLabelValues("jose", ResultInvalid, "JWE", "decryption")); got != 2 {
		t.Errorf("invalid checks = %v, want 2", got)
	}

	expected := `
# HELP dcscheck_checks_total Total number of checks run, by check, result and (for failed envelope checks) the stage that failed.
# TYPE dcscheck_checks_total counter
dcscheck_checks_total{check="jose",error_code="",failed_stage="",result="valid"} 1
dcscheck_checks_total{check="jose",error_code="decryption",failed_stage="JWE",result="invalid"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dcscheck_checks_total"); err != nil {
		t.Error(err)
	}
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.ObserveRequest("/v1/jws/verify", "POST", 200, 10*time.Millisecond)

	if got := testutil.CollectAndCount(m.requestDuration); got != 1 {
		t.Errorf("got %d series, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordCheck("signing", true, "", "")
	m.ObserveRequest("/health", "GET", 200, time.Millisecond)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("expected error registering the metrics twice")
	}
}
