package meilitest

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if s.searchGate != nil {
		s.waiting.Add(1)
		select {
		case <-s.searchGate:
			s.waiting.Add(-1)
		case <-r.Context().Done():
			s.waiting.Add(-1)
			return
		}
	}

	start := time.Now()
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
	conds, err := parseFilters(q.Get("filters"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	s.mu.Lock()
	idx, ok := s.lookup(w, r)
	if !ok {
		s.mu.Unlock()
		return
	}
	settings := idx.settings
	docs := idx.ordered()
	s.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(q.Get("q")))
	searchIn := splitList(q.Get("attributesToSearchIn"))
	if len(searchIn) == 0 {
		searchIn = settings.SearchableAttributes
	}

	var matched []map[string]any
	seen := make(map[string]struct{})
	for _, d := range docs {
		if !matchesFilters(d, conds) || !matchesTerm(d, term, searchIn, settings.StopWords) {
			continue
		}
		if settings.DistinctAttribute != nil {
			key := fmt.Sprint(d[*settings.DistinctAttribute])
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		matched = append(matched, d)
	}

	retrieve := splitList(q.Get("attributesToRetrieve"))
	if len(retrieve) == 0 {
		retrieve = settings.DisplayedAttributes
	}
	highlight := splitList(q.Get("attributesToHighlight"))
	hits := make([]map[string]any, 0, limit)
	for _, d := range page(matched, offset, limit) {
		hit := project(d, retrieve)
		if len(highlight) > 0 {
			hit = withFormatted(hit, d, highlight, term)
		}
		if q.Get("matches") == "true" {
			hit["_matchesInfo"] = map[string]any{}
		}
		hits = append(hits, hit)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hits":             hits,
		"offset":           offset,
		"limit":            limit,
		"nbHits":           len(matched),
		"exhaustiveNbHits": true,
		"processingTimeMs": time.Since(start).Milliseconds(),
		"query":            q.Get("q"),
	})
}

type condition struct {
	field string
	value string
}

// parseFilters understands `a = b AND c:d`. Values may be double-quoted.
func parseFilters(expr string) ([]condition, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	var out []condition
	for _, part := range strings.Split(expr, " AND ") {
		sep := strings.IndexAny(part, "=:")
		if sep <= 0 {
			return nil, fmt.Errorf("invalid filter %q", part)
		}
		field := strings.TrimSpace(part[:sep])
		value := strings.Trim(strings.TrimSpace(part[sep+1:]), `"'`)
		out = append(out, condition{field: field, value: value})
	}
	return out, nil
}

func matchesFilters(doc map[string]any, conds []condition) bool {
	for _, c := range conds {
		if fmt.Sprint(doc[c.field]) != c.value {
			return false
		}
	}
	return true
}

// matchesTerm reports whether every non-stop word of term occurs in one of
// the searched attributes. An empty term matches everything.
func matchesTerm(doc map[string]any, term string, fields, stopWords []string) bool {
	words := strings.Fields(term)
	stop := make(map[string]struct{}, len(stopWords))
	for _, sw := range stopWords {
		stop[strings.ToLower(sw)] = struct{}{}
	}
	for _, word := range words {
		if _, ok := stop[word]; ok {
			continue
		}
		if !containsWord(doc, word, fields) {
			return false
		}
	}
	return true
}

func containsWord(doc map[string]any, word string, fields []string) bool {
	all := len(fields) == 0 || (len(fields) == 1 && fields[0] == "*")
	for k, v := range doc {
		if !all && !contains(fields, k) {
			continue
		}
		if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), word) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func withFormatted(hit, doc map[string]any, attrs []string, term string) map[string]any {
	formatted := make(map[string]any, len(doc))
	for k, v := range doc {
		formatted[k] = v
	}
	all := len(attrs) == 1 && attrs[0] == "*"
	for k, v := range doc {
		str, ok := v.(string)
		if !ok || term == "" || (!all && !contains(attrs, k)) {
			continue
		}
		formatted[k] = emphasize(str, term)
	}
	out := make(map[string]any, len(hit)+1)
	for k, v := range hit {
		out[k] = v
	}
	out["_formatted"] = formatted
	return out
}

func emphasize(s, term string) string {
	lower := strings.ToLower(s)
	for _, word := range strings.Fields(term) {
		i := strings.Index(lower, word)
		if i < 0 {
			continue
		}
		return s[:i] + "<em>" + s[i:i+len(word)] + "</em>" + s[i+len(word):]
	}
	return s
}

// Inspect returns the settings and document count of uid.
func (s *Server) Inspect(uid string) (Settings, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[uid]
	if !ok {
		return Settings{}, 0, false
	}
	return idx.settings, len(idx.docs), true
}
