// Package meilitest provides an in-memory fake of the Meili HTTP API for
// tests. Updates are applied synchronously and reported as processed
// immediately; search is a naive case-insensitive substring match.
package meilitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Version is reported by GET /version.
const Version = "0.10.1"

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires every request except the health probe to carry key.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithSearchGate holds every search until gate is closed or the client
// goes away.
func WithSearchGate(gate <-chan struct{}) Option {
	return func(s *Server) { s.searchGate = gate }
}

// WithLogger logs one line per request.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is a running fake. Close it when done.
type Server struct {
	URL string

	httpSrv    *httptest.Server
	apiKey     string
	searchGate <-chan struct{}
	logger     *zap.Logger
	waiting    atomic.Int64

	mu       sync.Mutex
	healthy  bool
	indexes  map[string]*index
	requests []Request
}

// NewServer starts a fake on a loopback port.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:  zap.NewNop(),
		healthy: true,
		indexes: make(map[string]*index),
	}
	for _, o := range opts {
		o(s)
	}
	s.httpSrv = httptest.NewServer(s.routes())
	s.URL = s.httpSrv.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() { s.httpSrv.Close() }

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or a zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// WaitingSearches is the number of searches currently held by the gate.
func (s *Server) WaitingSearches() int {
	return int(s.waiting.Load())
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(s.recordMiddleware)
	r.Use(apiKeyMiddleware(s.apiKey))

	r.Get("/health", s.getHealth)
	r.Put("/health", s.putHealth)
	r.Get("/keys", s.getKeys)
	r.Get("/stats", s.getStats)
	r.Get("/version", s.getVersion)
	r.Get("/sys-info", s.getSysInfo(false))
	r.Get("/sys-info/pretty", s.getSysInfo(true))

	r.Route("/indexes", func(r chi.Router) {
		r.Get("/", s.listIndexes)
		r.Post("/", s.createIndex)

		r.Route("/{uid}", func(r chi.Router) {
			r.Get("/", s.showIndex)
			r.Put("/", s.updateIndex)
			r.Delete("/", s.deleteIndex)
			r.Get("/stats", s.indexStats)
			r.Get("/search", s.search)

			r.Get("/documents", s.listDocuments)
			r.Post("/documents", s.addDocuments(false))
			r.Put("/documents", s.addDocuments(true))
			r.Delete("/documents", s.clearDocuments)
			r.Post("/documents/delete-batch", s.deleteBatch)
			r.Get("/documents/{id}", s.getDocument)
			r.Delete("/documents/{id}", s.deleteDocument)

			r.Get("/settings", s.getSettings)
			r.Post("/settings", s.updateSettings)
			r.Delete("/settings", s.resetSettings)
			r.Get("/settings/{concern}", s.getConcern)
			r.Post("/settings/{concern}", s.updateConcern)
			r.Delete("/settings/{concern}", s.resetConcern)

			r.Get("/updates", s.listUpdates)
			r.Get("/updates/{updateID}", s.getUpdate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	})
	return r
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	healthy := s.healthy
	s.mu.Unlock()

	if !healthy {
		writeError(w, http.StatusServiceUnavailable, "maintenance", "Server is in maintenance, please try again later")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putHealth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Health *bool `json:"health"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Health == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: expected {\"health\": bool}")
		return
	}

	s.mu.Lock()
	s.healthy = *body.Health
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getKeys(w http.ResponseWriter, _ *http.Request) {
	if s.apiKey == "" {
		writeJSON(w, http.StatusOK, map[string]any{"private": nil, "public": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"private": "private-" + s.apiKey,
		"public":  "public-" + s.apiKey,
	})
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *time.Time
	stats := make(map[string]any, len(s.indexes))
	for uid, idx := range s.indexes {
		stats[uid] = idx.stats()
		if last == nil || idx.updatedAt.After(*last) {
			t := idx.updatedAt
			last = &t
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"databaseSize": 4096 * (len(s.indexes) + 1),
		"lastUpdate":   last,
		"indexes":      stats,
	})
}

func (s *Server) getVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"commitSha":  "0000000000000000000000000000000000000000",
		"buildDate":  "2020-05-01T00:00:00Z",
		"pkgVersion": Version,
	})
}

func (s *Server) getSysInfo(pretty bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if pretty {
			writeJSON(w, http.StatusOK, map[string]any{
				"memoryUsage":    "12.50 %",
				"processorUsage": []string{"3.00 %"},
				"global": map[string]any{
					"totalMemory":        "16.00 GB",
					"usedMemory":         "2.00 GB",
					"numberOfProcessors": 1,
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"memoryUsage":    12.5,
			"processorUsage": []float64{3},
			"global": map[string]any{
				"totalMemory":        16777216,
				"usedMemory":         2097152,
				"numberOfProcessors": 1,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{
		"message":   msg,
		"errorCode": code,
		"errorType": errorType(status),
		"errorLink": "https://docs.meilisearch.com/errors#" + code,
	})
}

func errorType(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "authentication_error"
	case status >= 500:
		return "internal_error"
	default:
		return "invalid_request_error"
	}
}

func writeUpdate(w http.ResponseWriter, id int64) {
	writeJSON(w, http.StatusAccepted, map[string]int64{"updateId": id})
}
