package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP holds request-level collectors for outbound calls.
type HTTP struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewHTTP creates the collectors and registers them on reg.
func NewHTTP(reg prometheus.Registerer) (*HTTP, error) {
	m := &HTTP{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "meili",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Outbound HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "meili",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of outbound HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}
	if err := RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.total); err != nil {
		return nil, err
	}
	return m, nil
}

// RoundTripper wraps next (http.DefaultTransport when nil). basePath is the
// path prefix of the server URL, stripped before route normalization.
func (m *HTTP) RoundTripper(next http.RoundTripper, basePath string) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{next: next, m: m, basePath: strings.TrimSuffix(basePath, "/")}
}

type roundTripper struct {
	next     http.RoundTripper
	m        *HTTP
	basePath string
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	switch {
	case err == nil:
		status = strconv.Itoa(resp.StatusCode)
	case errors.Is(err, context.Canceled) || errors.Is(req.Context().Err(), context.Canceled):
		status = "canceled"
	}
	route := NormalizePath(strings.TrimPrefix(req.URL.Path, rt.basePath))

	rt.m.duration.WithLabelValues(req.Method, route, status).Observe(duration)
	rt.m.total.WithLabelValues(req.Method, route, status).Inc()
	return resp, err //nolint:wrapcheck // transparent round tripper
}

// NormalizePath replaces index uids, document ids and update ids with
// placeholders to keep label cardinality bounded.
func NormalizePath(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "unknown"
	}
	segs := strings.Split(trimmed, "/")
	if segs[0] != "indexes" || len(segs) < 2 {
		return "/" + trimmed
	}
	segs[1] = "{uid}"
	if len(segs) >= 4 {
		switch {
		case segs[2] == "documents" && segs[3] != "delete-batch":
			segs[3] = "{id}"
		case segs[2] == "updates":
			segs[3] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}
