package meilitest

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/meili/internal/logger"
)

// APIKeyHeader is the header checked when the server requires a key.
const APIKeyHeader = "X-Meili-API-Key"

// publicPaths bypass authentication.
var publicPaths = map[string]struct{}{
	"/health": {},
}

// apiKeyMiddleware rejects requests whose key header does not match key.
// An empty key disables authentication.
func apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				writeError(w, http.StatusUnauthorized, "missing_authorization_header",
					"You must have an authorization token")
				return
			}
			if got != key {
				writeError(w, http.StatusForbidden, "invalid_token", "Invalid API key: "+got)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Request is one request as received by the server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// recordMiddleware keeps a copy of every request, body included.
func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// wideEventMiddleware emits one log line per request and echoes X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ctx, reqLogger := logpkg.WithFields(r.Context(), logger, zap.String("request_id", requestID))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Debug("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
