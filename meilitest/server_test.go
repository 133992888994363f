package meilitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func do(t *testing.T, s *Server, method, path, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestAPIKey_Required(t *testing.T) {
	s := NewServer(WithAPIKey("secret"))
	defer s.Close()

	resp, _ := do(t, s, http.MethodGet, "/indexes", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing key: got %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp, _ = do(t, s, http.MethodGet, "/indexes", "", http.Header{APIKeyHeader: {"wrong"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("wrong key: got %d, want %d", resp.StatusCode, http.StatusForbidden)
	}

	resp, _ = do(t, s, http.MethodGet, "/indexes", "", http.Header{APIKeyHeader: {"secret"}})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid key: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, _ = do(t, s, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("health without key: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestHealthToggle(t *testing.T) {
	s := NewServer()
	defer s.Close()

	do(t, s, http.MethodPut, "/health", `{"health":false}`, nil)
	resp, _ := do(t, s, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("unhealthy: got %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	do(t, s, http.MethodPut, "/health", `{"health":true}`, nil)
	resp, _ = do(t, s, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("healthy: got %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestAddDocuments_InfersPrimaryKeyAndRecordsUpdate(t *testing.T) {
	s := NewServer()
	defer s.Close()

	resp, body := do(t, s, http.MethodPost, "/indexes/movies/documents",
		`[{"movie_id":1,"title":"Alien"},{"movie_id":2,"title":"Heat"}]`, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("add: got %d, want %d: %s", resp.StatusCode, http.StatusAccepted, body)
	}

	resp, body = do(t, s, http.MethodGet, "/indexes/movies/updates/0", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: got %d", resp.StatusCode)
	}
	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if u.Status != "processed" || u.Type.Number != 2 {
		t.Errorf("update = %+v, want processed with 2 documents", u)
	}

	resp, _ = do(t, s, http.MethodGet, "/indexes/movies/documents/2", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get document: got %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var info map[string]any
	_, body = do(t, s, http.MethodGet, "/indexes/movies", "", nil)
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if info["primaryKey"] != "movie_id" {
		t.Errorf("primaryKey = %v, want movie_id", info["primaryKey"])
	}
}

func TestAddDocuments_NoPrimaryKeyFails(t *testing.T) {
	s := NewServer()
	defer s.Close()

	do(t, s, http.MethodPost, "/indexes/notes/documents", `[{"text":"hello"}]`, nil)
	_, body := do(t, s, http.MethodGet, "/indexes/notes/updates/0", "", nil)

	var u update
	if err := json.Unmarshal(body, &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if u.Status != "failed" || u.Error == "" {
		t.Errorf("update = %+v, want failed with error", u)
	}
}

func TestSettings_BundleMergesConcernOverwrites(t *testing.T) {
	s := NewServer()
	defer s.Close()

	do(t, s, http.MethodPost, "/indexes", `{"uid":"books"}`, nil)
	do(t, s, http.MethodPost, "/indexes/books/settings/stop-words", `["the","a"]`, nil)
	do(t, s, http.MethodPost, "/indexes/books/settings", `{"distinctAttribute":"isbn"}`, nil)

	got, _, ok := s.Inspect("books")
	if !ok {
		t.Fatal("index books not found")
	}
	if len(got.StopWords) != 2 {
		t.Errorf("stop words = %v, want kept after bundle merge", got.StopWords)
	}
	if got.DistinctAttribute == nil || *got.DistinctAttribute != "isbn" {
		t.Errorf("distinct attribute = %v, want isbn", got.DistinctAttribute)
	}

	do(t, s, http.MethodPost, "/indexes/books/settings/stop-words", `["an"]`, nil)
	got, _, _ = s.Inspect("books")
	if len(got.StopWords) != 1 || got.StopWords[0] != "an" {
		t.Errorf("stop words = %v, want [an]", got.StopWords)
	}

	do(t, s, http.MethodDelete, "/indexes/books/settings", "", nil)
	got, _, _ = s.Inspect("books")
	if got.DistinctAttribute != nil || len(got.StopWords) != 0 || !got.AcceptNewFields {
		t.Errorf("settings after reset = %+v, want defaults", got)
	}
}

func TestSearch_FiltersAndHighlights(t *testing.T) {
	s := NewServer()
	defer s.Close()

	do(t, s, http.MethodPost, "/indexes/products/documents",
		`[{"id":"1","title":"Gaming Laptop","brand":"acme"},{"id":"2","title":"Office Laptop","brand":"other"},{"id":"3","title":"Desk"}]`, nil)

	_, body := do(t, s, http.MethodGet,
		"/indexes/products/search?q=laptop&filters=brand%3Dacme&attributesToHighlight=title", "", nil)
	var res struct {
		Hits   []map[string]any `json:"hits"`
		NbHits int              `json:"nbHits"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if res.NbHits != 1 || len(res.Hits) != 1 {
		t.Fatalf("hits = %d (nbHits %d), want 1", len(res.Hits), res.NbHits)
	}
	formatted, _ := res.Hits[0]["_formatted"].(map[string]any)
	if formatted["title"] != "Gaming <em>Laptop</em>" {
		t.Errorf("_formatted.title = %v", formatted["title"])
	}
}

func TestRequests_Recorded(t *testing.T) {
	s := NewServer()
	defer s.Close()

	do(t, s, http.MethodPost, "/indexes/movies/documents/delete-batch", `["1","2"]`, nil)
	last := s.LastRequest()
	if last.Method != http.MethodPost || last.Path != "/indexes/movies/documents/delete-batch" {
		t.Errorf("last request = %s %s", last.Method, last.Path)
	}
	if string(last.Body) != `["1","2"]` {
		t.Errorf("body = %s", last.Body)
	}
	if len(s.Requests()) != 1 {
		t.Errorf("requests = %d, want 1", len(s.Requests()))
	}
}
