// Package rest is the HTTP/JSON transport shared by a client and every index
// handle derived from it. It owns the base URL, the fixed headers and the two
// wire hooks; it performs no retries.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Request describes one call against the remote API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Config configures a Transport.
type Config struct {
	BaseURL      string
	Header       http.Header
	HTTPClient   *http.Client
	RequestHook  RequestHook
	ResponseHook ResponseHook
	UserAgent    string
}

// Transport executes requests against one base URL.
type Transport struct {
	baseURL      string
	header       http.Header
	client       *http.Client
	requestHook  RequestHook
	responseHook ResponseHook
	userAgent    string
}

// New creates a Transport. Hooks default to EncodeJSON and DecodeJSON.
func New(cfg Config) (*Transport, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must use http or https scheme, got %q", u.Scheme)
	}

	t := &Transport{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		header:       cfg.Header.Clone(),
		client:       cfg.HTTPClient,
		requestHook:  cfg.RequestHook,
		responseHook: cfg.ResponseHook,
		userAgent:    cfg.UserAgent,
	}
	if t.header == nil {
		t.header = http.Header{}
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	if t.requestHook == nil {
		t.requestHook = EncodeJSON
	}
	if t.responseHook == nil {
		t.responseHook = DecodeJSON
	}
	return t, nil
}

// BaseURL returns the base URL without a trailing slash.
func (t *Transport) BaseURL() string { return t.baseURL }

// Do sends req and unwraps a 2xx response into out (may be nil).
//
// Failures come back as *Error (non-2xx), *NetworkError (no response) or an
// error matching ErrCanceled when ctx ended first.
func (t *Transport) Do(ctx context.Context, req Request, out any) error {
	body, contentType, err := t.requestHook(&req)
	if err != nil {
		return err
	}

	endpoint := t.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set(RequestIDHeader, requestID)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return canceled(ctx)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return &NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil && ctx.Err() != nil {
			return canceled(ctx)
		}
		return newError(req.Method, req.Path, resp.StatusCode, data)
	}

	if err := t.responseHook(resp, out); err != nil {
		if ctx.Err() != nil {
			return canceled(ctx)
		}
		return err
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID stores the correlation id sent with requests made under ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
