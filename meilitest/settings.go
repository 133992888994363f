package meilitest

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// DefaultRankingRules is the ranking order of a fresh index.
var DefaultRankingRules = []string{"typo", "words", "proximity", "attribute", "wordsPosition", "exactness"}

// Settings mirrors the settings bundle of one index.
type Settings struct {
	RankingRules         []string            `json:"rankingRules"`
	DistinctAttribute    *string             `json:"distinctAttribute"`
	SearchableAttributes []string            `json:"searchableAttributes"`
	DisplayedAttributes  []string            `json:"displayedAttributes"`
	StopWords            []string            `json:"stopWords"`
	Synonyms             map[string][]string `json:"synonyms"`
	AcceptNewFields      bool                `json:"acceptNewFields"`
}

// DefaultSettings returns the settings of a fresh index.
func DefaultSettings() Settings {
	return Settings{
		RankingRules:         slices.Clone(DefaultRankingRules),
		DistinctAttribute:    nil,
		SearchableAttributes: []string{"*"},
		DisplayedAttributes:  []string{"*"},
		StopWords:            []string{},
		Synonyms:             map[string][]string{},
		AcceptNewFields:      true,
	}
}

// concern binds one settings sub-path to its field.
type concern struct {
	update string
	get    func(s *Settings) any
	set    func(s *Settings, raw json.RawMessage) error
	reset  func(s *Settings)
}

var errNullValue = errors.New("value must not be null")

func listConcern(update string, field func(s *Settings) *[]string, def func() []string) concern {
	return concern{
		update: update,
		get:    func(s *Settings) any { return *field(s) },
		set: func(s *Settings, raw json.RawMessage) error {
			var v []string
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if v == nil {
				return errNullValue
			}
			*field(s) = v
			return nil
		},
		reset: func(s *Settings) { *field(s) = def() },
	}
}

var concerns = map[string]concern{
	"synonyms": {
		update: "Synonyms",
		get:    func(s *Settings) any { return s.Synonyms },
		set: func(s *Settings, raw json.RawMessage) error {
			var v map[string][]string
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if v == nil {
				return errNullValue
			}
			s.Synonyms = v
			return nil
		},
		reset: func(s *Settings) { s.Synonyms = map[string][]string{} },
	},
	"stop-words": listConcern("StopWords",
		func(s *Settings) *[]string { return &s.StopWords },
		func() []string { return []string{} }),
	"ranking-rules": listConcern("RankingRules",
		func(s *Settings) *[]string { return &s.RankingRules },
		func() []string { return slices.Clone(DefaultRankingRules) }),
	"searchable-attributes": listConcern("SearchableAttributes",
		func(s *Settings) *[]string { return &s.SearchableAttributes },
		func() []string { return []string{"*"} }),
	"displayed-attributes": listConcern("DisplayedAttributes",
		func(s *Settings) *[]string { return &s.DisplayedAttributes },
		func() []string { return []string{"*"} }),
	"distinct-attribute": {
		update: "DistinctAttribute",
		get:    func(s *Settings) any { return s.DistinctAttribute },
		set: func(s *Settings, raw json.RawMessage) error {
			var v *string
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			s.DistinctAttribute = v
			return nil
		},
		reset: func(s *Settings) { s.DistinctAttribute = nil },
	},
	"accept-new-fields": {
		update: "AcceptNewFields",
		get:    func(s *Settings) any { return s.AcceptNewFields },
		set: func(s *Settings, raw json.RawMessage) error {
			var v *bool
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if v == nil {
				return errNullValue
			}
			s.AcceptNewFields = *v
			return nil
		},
		reset: func(s *Settings) { s.AcceptNewFields = true },
	},
}

// bundleKeys maps keys of the full settings body onto concerns.
var bundleKeys = map[string]string{
	"rankingRules":         "ranking-rules",
	"distinctAttribute":    "distinct-attribute",
	"searchableAttributes": "searchable-attributes",
	"displayedAttributes":  "displayed-attributes",
	"stopWords":            "stop-words",
	"synonyms":             "synonyms",
	"acceptNewFields":      "accept-new-fields",
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, idx.settings)
}

// updateSettings merges the supplied keys; absent keys are left unchanged.
func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.ensureIndex(chi.URLParam(r, "uid"))

	next := idx.settings
	for key, raw := range body {
		name, ok := bundleKeys[key]
		if !ok {
			writeError(w, http.StatusBadRequest, "bad_request", "Unknown settings field: "+key)
			return
		}
		if err := concerns[name].set(&next, raw); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", key+": "+err.Error())
			return
		}
	}
	idx.settings = next
	writeUpdate(w, idx.enqueue("Settings", 0, ""))
}

func (s *Server) resetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	idx.settings = DefaultSettings()
	writeUpdate(w, idx.enqueue("Settings", 0, ""))
}

func (s *Server) concern(w http.ResponseWriter, r *http.Request) (concern, bool) {
	c, ok := concerns[chi.URLParam(r, "concern")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	}
	return c, ok
}

func (s *Server) getConcern(w http.ResponseWriter, r *http.Request) {
	c, ok := s.concern(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.get(&idx.settings))
}

// updateConcern overwrites the stored value wholesale.
func (s *Server) updateConcern(w http.ResponseWriter, r *http.Request) {
	c, ok := s.concern(w, r)
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.ensureIndex(chi.URLParam(r, "uid"))
	if err := c.set(&idx.settings, raw); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeUpdate(w, idx.enqueue(c.update, 0, ""))
}

func (s *Server) resetConcern(w http.ResponseWriter, r *http.Request) {
	c, ok := s.concern(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.lookup(w, r)
	if !ok {
		return
	}
	c.reset(&idx.settings)
	writeUpdate(w, idx.enqueue(c.update, 0, ""))
}
