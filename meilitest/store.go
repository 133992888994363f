package meilitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/meili/internal/logger"
)

type update struct {
	Status      string     `json:"status"`
	UpdateID    int64      `json:"updateId"`
	Type        updateType `json:"type"`
	Duration    float64    `json:"duration"`
	EnqueuedAt  time.Time  `json:"enqueuedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type updateType struct {
	Name   string `json:"name"`
	Number int    `json:"number,omitempty"`
}

type index struct {
	uid        string
	name       string
	primaryKey *string
	createdAt  time.Time
	updatedAt  time.Time

	settings Settings
	docs     map[string]map[string]any
	order    []string
	updates  []update
}

func newIndex(uid, name, primaryKey string) *index {
	now := time.Now().UTC()
	if name == "" {
		name = uid
	}
	idx := &index{
		uid:       uid,
		name:      name,
		createdAt: now,
		updatedAt: now,
		settings:  DefaultSettings(),
		docs:      make(map[string]map[string]any),
	}
	if primaryKey != "" {
		idx.primaryKey = &primaryKey
	}
	return idx
}

func (idx *index) info() map[string]any {
	return map[string]any{
		"uid":        idx.uid,
		"name":       idx.name,
		"createdAt":  idx.createdAt,
		"updatedAt":  idx.updatedAt,
		"primaryKey": idx.primaryKey,
	}
}

func (idx *index) stats() map[string]any {
	freq := make(map[string]int)
	for _, d := range idx.docs {
		for k := range d {
			freq[k]++
		}
	}
	return map[string]any{
		"numberOfDocuments": len(idx.docs),
		"isIndexing":        false,
		"fieldsFrequency":   freq,
	}
}

// enqueue records an update that is processed on the spot. A non-empty
// failure marks it failed.
func (idx *index) enqueue(kind string, number int, failure string) int64 {
	now := time.Now().UTC()
	u := update{
		Status:      "processed",
		UpdateID:    int64(len(idx.updates)),
		Type:        updateType{Name: kind, Number: number},
		Duration:    0.001,
		EnqueuedAt:  now,
		ProcessedAt: &now,
	}
	if failure != "" {
		u.Status = "failed"
		u.Error = failure
	}
	idx.updates = append(idx.updates, u)
	idx.updatedAt = now
	return u.UpdateID
}

func (idx *index) put(id string, doc map[string]any) {
	if _, ok := idx.docs[id]; !ok {
		idx.order = append(idx.order, id)
	}
	idx.docs[id] = doc
}

func (idx *index) remove(id string) {
	if _, ok := idx.docs[id]; !ok {
		return
	}
	delete(idx.docs, id)
	for i, o := range idx.order {
		if o == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

func (idx *index) ordered() []map[string]any {
	out := make([]map[string]any, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.docs[id])
	}
	return out
}

// inferPrimaryKey picks the first attribute whose name ends in "id".
func inferPrimaryKey(doc map[string]any) (string, bool) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.HasSuffix(strings.ToLower(k), "id") {
			return k, true
		}
	}
	return "", false
}

func docID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case json.Number:
		return id.String(), true
	}
	return "", false
}

// lookup resolves {uid}; the caller holds s.mu.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*index, bool) {
	uid := chi.URLParam(r, "uid")
	idx, ok := s.indexes[uid]
	if !ok {
		writeError(w, http.StatusNotFound, "index_not_found", fmt.Sprintf("Index %s not found", uid))
	}
	return idx, ok
}

// ensureIndex returns uid, creating it on first write; the caller holds s.mu.
func (s *Server) ensureIndex(uid string) *index {
	idx, ok := s.indexes[uid]
	if !ok {
		idx = newIndex(uid, "", "")
		s.indexes[uid] = idx
	}
	return idx
}

func (s *Server) listIndexes(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uids := make([]string, 0, len(s.indexes))
	for uid := range s.indexes {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	out := make([]map[string]any, len(uids))
	for i, uid := range uids {
		out[i] = s.indexes[uid].info()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID        string `json:"uid"`
		Name       string `json:"name"`
		PrimaryKey string `json:"primaryKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: "+err.Error())
		return
	}
	if req.UID == "" {
		writeError(w, http.StatusBadRequest, "missing_uid", "Index creation must have an uid")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[req.UID]; ok {
		writeError(w, http.StatusBadRequest, "index_already_exists", fmt.Sprintf("Index %s already exists", req.UID))
		return
	}
	idx := newIndex(req.UID, req.Name, req.PrimaryKey)
	s.indexes[req.UID] = idx
	writeJSON(w, http.StatusCreated, idx.info())
}

func (s *Server) showIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, idx.info())
}

func (s *Server) updateIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		PrimaryKey string `json:"primaryKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if req.PrimaryKey != "" {
		if idx.primaryKey != nil && *idx.primaryKey != req.PrimaryKey && len(idx.docs) > 0 {
			writeError(w, http.StatusBadRequest, "primary_key_already_present", "The primary key cannot be updated")
			return
		}
		pk := req.PrimaryKey
		idx.primaryKey = &pk
	}
	if req.Name != "" {
		idx.name = req.Name
	}
	idx.updatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, idx.info())
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(w, r); !ok {
		return
	}
	delete(s.indexes, chi.URLParam(r, "uid"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, idx.stats())
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "offset: "+err.Error())
		return
	}
	limit, err := intParam(q.Get("limit"), 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "limit: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	docs := page(idx.ordered(), offset, limit)
	fields := splitList(q.Get("attributesToRetrieve"))
	out := make([]map[string]any, len(docs))
	for i, d := range docs {
		out[i] = project(d, fields)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	doc, ok := idx.docs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found", fmt.Sprintf("Document with id %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// addDocuments replaces documents (POST) or merges into them (PUT).
func (s *Server) addDocuments(partial bool) http.HandlerFunc {
	kind := "DocumentsAddition"
	if partial {
		kind = "DocumentsPartial"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var docs []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&docs); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: expected an array of documents")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		idx := s.ensureIndex(chi.URLParam(r, "uid"))

		if pk := r.URL.Query().Get("primaryKey"); pk != "" && idx.primaryKey == nil {
			idx.primaryKey = &pk
		}
		if idx.primaryKey == nil && len(docs) > 0 {
			if pk, ok := inferPrimaryKey(docs[0]); ok {
				idx.primaryKey = &pk
			}
		}
		log := logpkg.FromContext(r.Context()).With(zap.String("index", idx.uid))
		if idx.primaryKey == nil {
			log.Debug("documents rejected: missing primary key", zap.Int("count", len(docs)))
			writeUpdate(w, idx.enqueue(kind, len(docs), "missing primary key"))
			return
		}

		pk := *idx.primaryKey
		for _, d := range docs {
			if _, ok := docID(d[pk]); !ok {
				log.Debug("documents rejected: invalid id", zap.String("primary_key", pk))
				writeUpdate(w, idx.enqueue(kind, len(docs), "document id is missing or invalid"))
				return
			}
		}
		for _, d := range docs {
			id, _ := docID(d[pk])
			doc := d
			if partial {
				if old, ok := idx.docs[id]; ok {
					merged := make(map[string]any, len(old)+len(d))
					for k, v := range old {
						merged[k] = v
					}
					for k, v := range d {
						merged[k] = v
					}
					doc = merged
				}
			}
			idx.put(id, doc)
		}
		writeUpdate(w, idx.enqueue(kind, len(docs), ""))
	}
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	idx.remove(chi.URLParam(r, "id"))
	writeUpdate(w, idx.enqueue("DocumentsDeletion", 1, ""))
}

func (s *Server) deleteBatch(w http.ResponseWriter, r *http.Request) {
	var ids []any
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: expected an array of ids")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	for _, raw := range ids {
		if id, ok := docID(raw); ok {
			idx.remove(id)
		}
	}
	writeUpdate(w, idx.enqueue("DocumentsDeletion", len(ids), ""))
}

func (s *Server) clearDocuments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	idx.docs = make(map[string]map[string]any)
	idx.order = nil
	writeUpdate(w, idx.enqueue("ClearAll", 0, ""))
}

func (s *Server) listUpdates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	out := make([]update, len(idx.updates))
	copy(out, idx.updates)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "updateID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "update id must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if id < 0 || id >= int64(len(idx.updates)) {
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("Update %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, idx.updates[id])
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// project copies doc keeping only fields; nil or "*" keeps everything.
func project(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == "*") {
		out := make(map[string]any, len(doc))
		for k, v := range doc {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
