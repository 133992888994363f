package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// UpdateMode states what an update does to the stored value of a concern.
type UpdateMode string

const (
	// UpdateMerge changes only the keys present in the update body.
	UpdateMerge UpdateMode = "merge"
	// UpdateOverwrite replaces the stored value wholesale.
	UpdateOverwrite UpdateMode = "overwrite"
)

// SettingsConcern is one independently configurable settings facet. Each is
// read with GET, updated with POST and reset to its default with DELETE on
// its sub-path.
type SettingsConcern struct {
	Name string
	Path string
	Mode UpdateMode
}

// Settings concerns.
var (
	ConcernSettings             = SettingsConcern{Name: "settings", Path: "settings", Mode: UpdateMerge}
	ConcernSynonyms             = SettingsConcern{Name: "synonyms", Path: "settings/synonyms", Mode: UpdateOverwrite}
	ConcernStopWords            = SettingsConcern{Name: "stop-words", Path: "settings/stop-words", Mode: UpdateOverwrite}
	ConcernRankingRules         = SettingsConcern{Name: "ranking-rules", Path: "settings/ranking-rules", Mode: UpdateOverwrite}
	ConcernDistinctAttribute    = SettingsConcern{Name: "distinct-attribute", Path: "settings/distinct-attribute", Mode: UpdateOverwrite}
	ConcernSearchableAttributes = SettingsConcern{Name: "searchable-attributes", Path: "settings/searchable-attributes", Mode: UpdateOverwrite}
	ConcernDisplayedAttributes  = SettingsConcern{Name: "displayed-attributes", Path: "settings/displayed-attributes", Mode: UpdateOverwrite}
	ConcernAcceptNewFields      = SettingsConcern{Name: "accept-new-fields", Path: "settings/accept-new-fields", Mode: UpdateOverwrite}
)

// Concerns lists every settings concern, the full bundle first.
func Concerns() []SettingsConcern {
	return []SettingsConcern{
		ConcernSettings,
		ConcernSynonyms,
		ConcernStopWords,
		ConcernRankingRules,
		ConcernDistinctAttribute,
		ConcernSearchableAttributes,
		ConcernDisplayedAttributes,
		ConcernAcceptNewFields,
	}
}

// ConcernByName looks a concern up by its Name.
func ConcernByName(name string) (SettingsConcern, bool) {
	for _, c := range Concerns() {
		if c.Name == name {
			return c, true
		}
	}
	return SettingsConcern{}, false
}

func (c SettingsConcern) op(verb string) string {
	return verb + "_" + strings.ReplaceAll(c.Name, "-", "_")
}

// Settings is the full settings bundle. On update only non-nil fields are
// sent, so the server keeps every other key; a non-nil empty list is sent
// and clears that concern.
type Settings struct {
	RankingRules         []string            `json:"rankingRules"`
	DistinctAttribute    *string             `json:"distinctAttribute"`
	SearchableAttributes []string            `json:"searchableAttributes"`
	DisplayedAttributes  []string            `json:"displayedAttributes"`
	StopWords            []string            `json:"stopWords"`
	Synonyms             map[string][]string `json:"synonyms"`
	AcceptNewFields      *bool               `json:"acceptNewFields"`
}

// MarshalJSON emits only the fields the caller supplied.
func (s Settings) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 7)
	if s.RankingRules != nil {
		m["rankingRules"] = s.RankingRules
	}
	if s.DistinctAttribute != nil {
		m["distinctAttribute"] = *s.DistinctAttribute
	}
	if s.SearchableAttributes != nil {
		m["searchableAttributes"] = s.SearchableAttributes
	}
	if s.DisplayedAttributes != nil {
		m["displayedAttributes"] = s.DisplayedAttributes
	}
	if s.StopWords != nil {
		m["stopWords"] = s.StopWords
	}
	if s.Synonyms != nil {
		m["synonyms"] = s.Synonyms
	}
	if s.AcceptNewFields != nil {
		m["acceptNewFields"] = *s.AcceptNewFields
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

func getConcern[T any](ctx context.Context, i *Index, c SettingsConcern) (T, error) {
	var out T
	path, err := i.path(c.Path)
	if err != nil {
		return out, fmt.Errorf("get %s %q: %w", c.Name, i.uid, err)
	}
	err = i.caller.do(ctx, c.op("get"), rest.Request{
		Method: http.MethodGet,
		Path:   path,
	}, &out)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get %s %q: %w", c.Name, i.uid, err)
	}
	return out, nil
}

func updateConcern(ctx context.Context, i *Index, c SettingsConcern, v any) (AsyncUpdate, error) {
	path, err := i.path(c.Path)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("update %s %q: %w", c.Name, i.uid, err)
	}
	var out AsyncUpdate
	err = i.caller.do(ctx, c.op("update"), rest.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   v,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("update %s %q: %w", c.Name, i.uid, err)
	}
	return out, nil
}

func resetConcern(ctx context.Context, i *Index, c SettingsConcern) (AsyncUpdate, error) {
	path, err := i.path(c.Path)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("reset %s %q: %w", c.Name, i.uid, err)
	}
	var out AsyncUpdate
	err = i.caller.do(ctx, c.op("reset"), rest.Request{
		Method: http.MethodDelete,
		Path:   path,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("reset %s %q: %w", c.Name, i.uid, err)
	}
	return out, nil
}

// GetSetting reads any concern as raw JSON.
func (i *Index) GetSetting(ctx context.Context, c SettingsConcern) (json.RawMessage, error) {
	return getConcern[json.RawMessage](ctx, i, c)
}

// UpdateSetting sends v as the new value of c.
func (i *Index) UpdateSetting(ctx context.Context, c SettingsConcern, v any) (AsyncUpdate, error) {
	return updateConcern(ctx, i, c, v)
}

// ResetSetting restores the default value of c.
func (i *Index) ResetSetting(ctx context.Context, c SettingsConcern) (AsyncUpdate, error) {
	return resetConcern(ctx, i, c)
}

// GetSettings returns the full settings bundle.
func (i *Index) GetSettings(ctx context.Context) (Settings, error) {
	return getConcern[Settings](ctx, i, ConcernSettings)
}

// UpdateSettings merges s into the stored settings.
func (i *Index) UpdateSettings(ctx context.Context, s Settings) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernSettings, s)
}

// ResetSettings restores every concern to its default.
func (i *Index) ResetSettings(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernSettings)
}

// GetSynonyms returns the synonym map.
func (i *Index) GetSynonyms(ctx context.Context) (map[string][]string, error) {
	return getConcern[map[string][]string](ctx, i, ConcernSynonyms)
}

// UpdateSynonyms replaces the synonym map.
func (i *Index) UpdateSynonyms(ctx context.Context, synonyms map[string][]string) (AsyncUpdate, error) {
	if synonyms == nil {
		synonyms = map[string][]string{}
	}
	return updateConcern(ctx, i, ConcernSynonyms, synonyms)
}

// ResetSynonyms removes every synonym.
func (i *Index) ResetSynonyms(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernSynonyms)
}

// GetStopWords returns the stop words.
func (i *Index) GetStopWords(ctx context.Context) ([]string, error) {
	return getConcern[[]string](ctx, i, ConcernStopWords)
}

// UpdateStopWords replaces the stop words.
func (i *Index) UpdateStopWords(ctx context.Context, words []string) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernStopWords, nonNil(words))
}

// ResetStopWords removes every stop word.
func (i *Index) ResetStopWords(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernStopWords)
}

// GetRankingRules returns the ranking rules in order.
func (i *Index) GetRankingRules(ctx context.Context) ([]string, error) {
	return getConcern[[]string](ctx, i, ConcernRankingRules)
}

// UpdateRankingRules replaces the ranking rules.
func (i *Index) UpdateRankingRules(ctx context.Context, rules []string) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernRankingRules, nonNil(rules))
}

// ResetRankingRules restores the default ranking rules.
func (i *Index) ResetRankingRules(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernRankingRules)
}

// GetDistinctAttribute returns the distinct attribute, nil when none is set.
func (i *Index) GetDistinctAttribute(ctx context.Context) (*string, error) {
	return getConcern[*string](ctx, i, ConcernDistinctAttribute)
}

// UpdateDistinctAttribute sets the distinct attribute.
func (i *Index) UpdateDistinctAttribute(ctx context.Context, attr string) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernDistinctAttribute, attr)
}

// ResetDistinctAttribute unsets the distinct attribute.
func (i *Index) ResetDistinctAttribute(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernDistinctAttribute)
}

// GetSearchableAttributes returns the searchable attributes.
func (i *Index) GetSearchableAttributes(ctx context.Context) ([]string, error) {
	return getConcern[[]string](ctx, i, ConcernSearchableAttributes)
}

// UpdateSearchableAttributes replaces the searchable attributes; order sets
// attribute importance.
func (i *Index) UpdateSearchableAttributes(ctx context.Context, attrs []string) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernSearchableAttributes, nonNil(attrs))
}

// ResetSearchableAttributes makes every attribute searchable again.
func (i *Index) ResetSearchableAttributes(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernSearchableAttributes)
}

// GetDisplayedAttributes returns the displayed attributes.
func (i *Index) GetDisplayedAttributes(ctx context.Context) ([]string, error) {
	return getConcern[[]string](ctx, i, ConcernDisplayedAttributes)
}

// UpdateDisplayedAttributes replaces the displayed attributes.
func (i *Index) UpdateDisplayedAttributes(ctx context.Context, attrs []string) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernDisplayedAttributes, nonNil(attrs))
}

// ResetDisplayedAttributes makes every attribute displayed again.
func (i *Index) ResetDisplayedAttributes(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernDisplayedAttributes)
}

// GetAcceptNewFields reports whether new document fields are indexed.
func (i *Index) GetAcceptNewFields(ctx context.Context) (bool, error) {
	return getConcern[bool](ctx, i, ConcernAcceptNewFields)
}

// UpdateAcceptNewFields sets the accept-new-fields flag.
func (i *Index) UpdateAcceptNewFields(ctx context.Context, accept bool) (AsyncUpdate, error) {
	return updateConcern(ctx, i, ConcernAcceptNewFields, accept)
}

// ResetAcceptNewFields restores the default flag.
func (i *Index) ResetAcceptNewFields(ctx context.Context) (AsyncUpdate, error) {
	return resetConcern(ctx, i, ConcernAcceptNewFields)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
