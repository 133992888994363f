package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestTransport(t *testing.T, h http.HandlerFunc, header http.Header) *Transport {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tr, err := New(Config{BaseURL: srv.URL + "/", Header: header})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestNew_RejectsNonHTTPScheme(t *testing.T) {
	if _, err := New(Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Error("expected error for ftp scheme")
	}
	if _, err := New(Config{BaseURL: "://bad"}); err == nil {
		t.Error("expected error for unparsable url")
	}
}

func TestDo_EncodesBodyAndDecodesPayload(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/indexes/movies/documents/delete-batch" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `["1","2","3"]` {
			t.Errorf("body = %s", body)
		}

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"updateId": 7}`))
	}, nil)

	var out struct {
		UpdateID int64 `json:"updateId"`
	}
	err := tr.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/indexes/movies/documents/delete-batch",
		Body:   []string{"1", "2", "3"},
	}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.UpdateID != 7 {
		t.Errorf("updateId = %d, want 7", out.UpdateID)
	}
}

func TestDo_NoBodyPassesThrough(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			t.Errorf("Content-Type = %q, want none", ct)
		}
		if r.ContentLength != 0 {
			t.Errorf("ContentLength = %d, want 0", r.ContentLength)
		}
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	var out map[string]any
	if err := tr.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/indexes/movies"}, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != nil {
		t.Errorf("out = %v, want nil", out)
	}
}

func TestDo_QueryAndHeaders(t *testing.T) {
	header := http.Header{}
	header.Set("X-Meili-API-Key", "masterKey")

	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Meili-API-Key"); got != "masterKey" {
			t.Errorf("api key = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}
		if got := r.URL.Query().Get("q"); got != "laptop" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}, header)

	q := url.Values{}
	q.Set("q", "laptop")
	q.Set("limit", "5")
	if err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/indexes/products/search", Query: q}, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDo_RequestIDFromContext(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(RequestIDHeader); got != "req-42" {
			t.Errorf("request id = %q, want req-42", got)
		}
		w.WriteHeader(http.StatusOK)
	}, nil)

	ctx := WithRequestID(context.Background(), "req-42")
	if err := tr.Do(ctx, Request{Method: http.MethodGet, Path: "/health"}, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := RequestIDFromContext(ctx); got != "req-42" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
}

func TestDo_RemoteError(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message":   "Index movies not found",
			"errorCode": "index_not_found",
			"errorType": "invalid_request_error",
			"errorLink": "https://docs.meilisearch.com/errors#index_not_found",
		})
	}, nil)

	err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/indexes/movies"}, nil)
	var remote *Error
	if !errors.As(err, &remote) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if remote.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", remote.StatusCode)
	}
	if remote.Message != "Index movies not found" {
		t.Errorf("message = %q", remote.Message)
	}
	if remote.ErrorCode != "index_not_found" || remote.ErrorType != "invalid_request_error" {
		t.Errorf("code/type = %q/%q", remote.ErrorCode, remote.ErrorType)
	}
	if !strings.Contains(string(remote.Body), "index_not_found") {
		t.Errorf("body = %s", remote.Body)
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Errorf("error = %q", err.Error())
	}
	if errors.Is(err, ErrCanceled) {
		t.Error("remote error must not match ErrCanceled")
	}
}

func TestDo_RemoteErrorNonJSONBody(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, nil)

	err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/stats"}, nil)
	var remote *Error
	if !errors.As(err, &remote) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if remote.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", remote.StatusCode)
	}
	if remote.Message != "" {
		t.Errorf("message = %q, want empty", remote.Message)
	}
	if got, want := remote.Error(), "GET /stats: status 502: upstream down"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tr, err := New(Config{BaseURL: base})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/health"}, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if netErr.Path != "/health" {
		t.Errorf("path = %q", netErr.Path)
	}
	if errors.Is(err, ErrCanceled) {
		t.Error("network error must not match ErrCanceled")
	}
}

func TestDo_Canceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.Do(ctx, Request{Method: http.MethodGet, Path: "/indexes/movies/search"}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected ErrCanceled wrapping context.Canceled, got %v", err)
		}
		var remote *Error
		if errors.As(err, &remote) {
			t.Error("cancellation must not be a remote error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("request was not canceled")
	}
}

func TestDo_CustomHooks(t *testing.T) {
	tr, err := New(Config{
		BaseURL: "http://example.invalid",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(http.NoBody), Request: r}, nil
		})},
		ResponseHook: func(_ *http.Response, out any) error {
			*(out.(*string)) = "hooked"
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out string
	if err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/version"}, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out != "hooked" {
		t.Errorf("out = %q, want hooked", out)
	}
}

func TestDo_DecodeError(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}, nil)

	var out map[string]any
	err := tr.Do(context.Background(), Request{Method: http.MethodGet, Path: "/version"}, &out)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestEncodeJSON_MarshalError(t *testing.T) {
	if _, _, err := EncodeJSON(&Request{Body: make(chan int)}); err == nil {
		t.Error("expected marshal error")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
