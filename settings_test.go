package meili

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/meili/meilitest"
)

func TestConcerns_Modes(t *testing.T) {
	concerns := Concerns()
	require.Len(t, concerns, 8)
	assert.Equal(t, ConcernSettings, concerns[0])
	assert.Equal(t, UpdateMerge, concerns[0].Mode)
	for _, c := range concerns[1:] {
		assert.Equal(t, UpdateOverwrite, c.Mode, c.Name)
		assert.Equal(t, "settings/"+c.Name, c.Path)
	}

	c, ok := ConcernByName("stop-words")
	require.True(t, ok)
	assert.Equal(t, ConcernStopWords, c)
	_, ok = ConcernByName("nope")
	assert.False(t, ok)
}

func TestSettings_MarshalOnlySuppliedFields(t *testing.T) {
	data, err := json.Marshal(Settings{
		StopWords:         []string{},
		DistinctAttribute: String("isbn"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stopWords":[],"distinctAttribute":"isbn"}`, string(data))

	data, err = json.Marshal(Settings{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestSettings_WireRequests(t *testing.T) {
	c, srv := newTestClient(t)
	idx := seedProducts(t, c)
	ctx := context.Background()

	for _, concern := range Concerns() {
		_, err := idx.ResetSetting(ctx, concern)
		require.NoError(t, err)
		last := srv.LastRequest()
		assert.Equal(t, http.MethodDelete, last.Method)
		assert.Equal(t, "/indexes/products/"+concern.Path, last.Path)

		_, err = idx.GetSetting(ctx, concern)
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, srv.LastRequest().Method)
	}

	_, err := idx.UpdateStopWords(ctx, []string{"the"})
	require.NoError(t, err)
	last := srv.LastRequest()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/indexes/products/settings/stop-words", last.Path)
	assert.JSONEq(t, `["the"]`, string(last.Body))
}

func TestSettings_ConcernRoundTripAndReset(t *testing.T) {
	c, _ := newTestClient(t)
	idx := seedProducts(t, c)
	ctx := context.Background()
	defaults := meilitest.DefaultSettings()

	t.Run("synonyms", func(t *testing.T) {
		want := map[string][]string{"laptop": {"notebook"}, "notebook": {"laptop"}}
		_, err := idx.UpdateSynonyms(ctx, want)
		require.NoError(t, err)
		got, err := idx.GetSynonyms(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = idx.ResetSynonyms(ctx)
		require.NoError(t, err)
		got, err = idx.GetSynonyms(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaults.Synonyms, got)
	})

	t.Run("stop-words", func(t *testing.T) {
		want := []string{"the", "a", "of"}
		_, err := idx.UpdateStopWords(ctx, want)
		require.NoError(t, err)
		got, err := idx.GetStopWords(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, got)

		_, err = idx.ResetStopWords(ctx)
		require.NoError(t, err)
		got, err = idx.GetStopWords(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaults.StopWords, got)
	})

	t.Run("ranking-rules", func(t *testing.T) {
		want := []string{"words", "typo", "desc(price)"}
		_, err := idx.UpdateRankingRules(ctx, want)
		require.NoError(t, err)
		got, err := idx.GetRankingRules(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = idx.ResetRankingRules(ctx)
		require.NoError(t, err)
		got, err = idx.GetRankingRules(ctx)
		require.NoError(t, err)
		assert.Equal(t, meilitest.DefaultRankingRules, got)
	})

	t.Run("distinct-attribute", func(t *testing.T) {
		_, err := idx.UpdateDistinctAttribute(ctx, "brand")
		require.NoError(t, err)
		got, err := idx.GetDistinctAttribute(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "brand", *got)

		_, err = idx.ResetDistinctAttribute(ctx)
		require.NoError(t, err)
		got, err = idx.GetDistinctAttribute(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("searchable-attributes", func(t *testing.T) {
		want := []string{"title", "brand"}
		_, err := idx.UpdateSearchableAttributes(ctx, want)
		require.NoError(t, err)
		got, err := idx.GetSearchableAttributes(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = idx.ResetSearchableAttributes(ctx)
		require.NoError(t, err)
		got, err = idx.GetSearchableAttributes(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaults.SearchableAttributes, got)
	})

	t.Run("displayed-attributes", func(t *testing.T) {
		want := []string{"id", "title"}
		_, err := idx.UpdateDisplayedAttributes(ctx, want)
		require.NoError(t, err)
		got, err := idx.GetDisplayedAttributes(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = idx.ResetDisplayedAttributes(ctx)
		require.NoError(t, err)
		got, err = idx.GetDisplayedAttributes(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaults.DisplayedAttributes, got)
	})

	t.Run("accept-new-fields", func(t *testing.T) {
		_, err := idx.UpdateAcceptNewFields(ctx, false)
		require.NoError(t, err)
		got, err := idx.GetAcceptNewFields(ctx)
		require.NoError(t, err)
		assert.False(t, got)

		_, err = idx.ResetAcceptNewFields(ctx)
		require.NoError(t, err)
		got, err = idx.GetAcceptNewFields(ctx)
		require.NoError(t, err)
		assert.Equal(t, defaults.AcceptNewFields, got)
	})
}

func TestSettings_BundleMergeVersusOverwrite(t *testing.T) {
	c, _ := newTestClient(t)
	idx := seedProducts(t, c)
	ctx := context.Background()

	_, err := idx.UpdateStopWords(ctx, []string{"the", "a"})
	require.NoError(t, err)
	_, err = idx.UpdateSynonyms(ctx, map[string][]string{"pc": {"computer"}})
	require.NoError(t, err)

	// MERGE: keys absent from the bundle keep their values.
	_, err = idx.UpdateSettings(ctx, Settings{DistinctAttribute: String("brand")})
	require.NoError(t, err)
	got, err := idx.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "a"}, got.StopWords)
	assert.Equal(t, map[string][]string{"pc": {"computer"}}, got.Synonyms)
	require.NotNil(t, got.DistinctAttribute)
	assert.Equal(t, "brand", *got.DistinctAttribute)

	// OVERWRITE: the concern value is replaced wholesale.
	_, err = idx.UpdateStopWords(ctx, []string{"of"})
	require.NoError(t, err)
	words, err := idx.GetStopWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"of"}, words)

	_, err = idx.ResetSettings(ctx)
	require.NoError(t, err)
	got, err = idx.GetSettings(ctx)
	require.NoError(t, err)
	defaults := meilitest.DefaultSettings()
	assert.Equal(t, defaults.RankingRules, got.RankingRules)
	assert.Nil(t, got.DistinctAttribute)
	assert.Equal(t, defaults.SearchableAttributes, got.SearchableAttributes)
	assert.Equal(t, defaults.DisplayedAttributes, got.DisplayedAttributes)
	assert.Equal(t, defaults.StopWords, got.StopWords)
	assert.Equal(t, defaults.Synonyms, got.Synonyms)
	require.NotNil(t, got.AcceptNewFields)
	assert.Equal(t, defaults.AcceptNewFields, *got.AcceptNewFields)
}

func TestUpdateSetting_RawJSON(t *testing.T) {
	c, srv := newTestClient(t)
	idx := seedProducts(t, c)
	ctx := context.Background()

	_, err := idx.UpdateSetting(ctx, ConcernRankingRules, json.RawMessage(`["words","typo"]`))
	require.NoError(t, err)
	assert.JSONEq(t, `["words","typo"]`, string(srv.LastRequest().Body))

	raw, err := idx.GetSetting(ctx, ConcernRankingRules)
	require.NoError(t, err)
	assert.JSONEq(t, `["words","typo"]`, string(raw))
}
