package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoundTripper_RecordsDurationAndCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meili/indexes/movies/documents/42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m, err := NewHTTP(reg)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	client := &http.Client{Transport: m.RoundTripper(nil, "/meili/")}

	for _, path := range []string{"/meili/health", "/meili/indexes/movies/documents/42"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if v := testutil.ToFloat64(m.total.WithLabelValues("GET", "/health", "200")); v != 1 {
		t.Errorf("requests_total{/health,200} = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.total.WithLabelValues("GET", "/indexes/{uid}/documents/{id}", "404")); v != 1 {
		t.Errorf("requests_total{documents/{id},404} = %f, want 1", v)
	}
	if n := testutil.CollectAndCount(m.duration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestRoundTripper_NetworkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m, err := NewHTTP(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	client := &http.Client{Transport: m.RoundTripper(nil, "")}
	if _, err := client.Get(url + "/stats"); err == nil {
		t.Fatal("expected connection error")
	}

	if v := testutil.ToFloat64(m.total.WithLabelValues("GET", "/stats", "error")); v != 1 {
		t.Errorf("requests_total{/stats,error} = %f, want 1", v)
	}
}

func TestNewHTTP_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewHTTP(reg)
	if err != nil {
		t.Fatalf("first NewHTTP: %v", err)
	}
	second, err := NewHTTP(reg)
	if err != nil {
		t.Fatalf("second NewHTTP: %v", err)
	}
	if first.total != second.total {
		t.Error("expected second registration to reuse the existing counter")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/", "unknown"},
		{"/health", "/health"},
		{"/sys-info/pretty", "/sys-info/pretty"},
		{"/indexes", "/indexes"},
		{"/indexes/movies", "/indexes/{uid}"},
		{"/indexes/movies/search", "/indexes/{uid}/search"},
		{"/indexes/movies/documents", "/indexes/{uid}/documents"},
		{"/indexes/movies/documents/123", "/indexes/{uid}/documents/{id}"},
		{"/indexes/movies/documents/delete-batch", "/indexes/{uid}/documents/delete-batch"},
		{"/indexes/movies/updates/7", "/indexes/{uid}/updates/{id}"},
		{"/indexes/movies/settings/stop-words", "/indexes/{uid}/settings/stop-words"},
	}

	for _, tc := range tests {
		result := NormalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("NormalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}
