package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/information-sharing-networks/dcs-checker/internal/logger"
	"github.com/information-sharing-networks/dcs-checker/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestSizeLimits(t *testing.T) {
	router := chi.NewRouter()

	route := "/test/route"

	maxRequestSize := int64(64)

	errRequestSize := int64(128)

	if maxRequestSize <= 0 {
		t.Fatalf("Max request size is not greater than 0: %d", maxRequestSize)
	}

	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestSize))
		r.Post(route, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		path     string
		bodySize int64
		wantCode int
	}{
		{"API normal request", route, maxRequestSize, http.StatusOK},
		{"API oversized request", route, errRequestSize, 413}, // Request Entity Too Large
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", int(tt.bodySize))
			req := httptest.NewRequest("POST", tt.path, bytes.NewReader([]byte(body)))
			req.ContentLength = tt.bodySize

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			// Verify header is always set
			if header := rr.Header().Get("X-Max-Request-Size"); header == "" {
				t.Error("X-Max-Request-Size header not set")
			}
		})
	}
}

func TestRateLimitIsEnabled(t *testing.T) {
	// Create router with rate limiting
	router := chi.NewRouter()
	router.Use(RateLimit(10, 5)) // 10 requests per second, burst of 5
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// First few requests should succeed (within burst)
	for i := range 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	// Next request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Rate limit request should fail: got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitIsDisabled(t *testing.T) {

	tests := []struct {
		name          string
		rps           int32
		expectLimited bool
	}{
		{"Rate limiting enabled", 10, true},
		{"Rate limiting disabled with 0", 0, false},
		{"Rate limiting disabled with negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, 1)) // burst of 1 for easy testing
			router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			// Make 2 requests quickly
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest("GET", "/test", nil)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)

				if tt.expectLimited && i == 1 {
					// Second request should be rate limited
					if rr.Code != http.StatusTooManyRequests {
						t.Errorf("Expected rate limit on request %d: got status %d, want %d", i+1, rr.Code, http.StatusTooManyRequests)
					}
				} else {
					// Request should succeed
					if rr.Code != http.StatusOK {
						t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
					}
				}
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{"dev", false},
		{"prod", true},
		{"staging", true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			handler := SecurityHeaders(tt.environment)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

			if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options = %q", got)
			}
			if hsts := rr.Header().Get("Strict-Transport-Security") != ""; hsts != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", hsts, tt.wantHSTS)
			}
		})
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	appLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(RequestLogging(appLogger))
	router.Post("/v1/jws/verify", func(w http.ResponseWriter, r *http.Request) {
		logger.ContextWithLogAttrs(r.Context(), slog.String("check_id", "abc"))
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/jws/verify", strings.NewReader("{}")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log entry, got %q: %v", buf.String(), err)
	}

	if entry["msg"] != "Request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["check_id"] != "abc" {
		t.Errorf("handler attribute missing: %v", entry)
	}
	if entry["request_id"] == "" || entry["request_id"] == nil {
		t.Errorf("request_id missing: %v", entry)
	}
}

func TestRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	router := chi.NewRouter()
	router.Use(RequestMetrics(m))
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/items/1", "/items/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	counts := map[string]uint64{}
	for _, family := range families {
		if family.GetName() != "dcscheck_http_request_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			counts[labels["route"]+" "+labels["status"]] = metric.GetHistogram().GetSampleCount()
		}
	}

	if counts["/items/{id} 418"] != 2 {
		t.Errorf("expected 2 requests recorded against the route pattern, got %v", counts)
	}
	if counts["unmatched 404"] != 1 {
		t.Errorf("expected 1 unmatched request, got %v", counts)
	}
	if n := testutil.CollectAndCount(reg, "dcscheck_http_request_duration_seconds"); n != 2 {
		t.Errorf("got %d series, want 2", n)
	}
}
