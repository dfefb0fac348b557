// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package metrics exposes Prometheus instrumentation for the query service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdhender/aresmem/web/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aresmem_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aresmem_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// QueryErrors counts failed queries by error code.
	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aresmem_query_errors_total",
			Help: "Total number of failed queries by error code",
		},
		[]string{"code"},
	)
)

// StatsProvider is implemented by *store.Loader.
type StatsProvider interface {
	Loaded() bool
	Stats() store.LoadStats
}

// RegisterDataset registers gauges that read the loader's statistics at scrape time.
func RegisterDataset(reg prometheus.Registerer, p StatsProvider) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aresmem_dataset_loaded",
			Help: "1 if the dataset is in memory",
		}, func() float64 {
			if p.Loaded() {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aresmem_dataset_records",
			Help: "Number of records kept by the last load",
		}, func() float64 { return float64(p.Stats().Kept) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aresmem_dataset_skipped_lines",
			Help: "Number of malformed lines dropped by the last load",
		}, func() float64 { return float64(p.Stats().Skipped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aresmem_dataset_nonconforming_lines",
			Help: "Number of kept lines with fields that fail the record schema",
		}, func() float64 { return float64(p.Stats().Nonconforming) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "aresmem_dataset_load_seconds",
			Help: "Duration of the last load",
		}, func() float64 { return p.Stats().Elapsed.Seconds() }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Middleware records request count and duration for the given handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := PathLabel(r.URL.Path)
		RequestTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routes are the single-segment paths that get their own label.
var routes = map[string]bool{
	"stats":   true,
	"cases":   true,
	"search":  true,
	"health":  true,
	"status":  true,
	"metrics": true,
}

// PathLabel collapses a request path to its route. Paths that match no route
// share the "other" label so unknown URLs cannot add series.
func PathLabel(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] == "":
		return "root"
	case len(parts) == 1 && routes[parts[0]]:
		return parts[0]
	case len(parts) == 2 && parts[0] == "case":
		return "case"
	case len(parts) == 4 && parts[0] == "case" && parts[2] == "step":
		return "case_step"
	default:
		return "other"
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
