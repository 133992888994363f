package meili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/meili/internal/query"
	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// SearchParams are the optional parameters of a search. Nil pointers and
// empty lists are not sent; an explicit zero is.
type SearchParams struct {
	Offset *int
	Limit  *int

	AttributesToRetrieve  []string
	AttributesToSearchIn  []string
	AttributesToCrop      []string
	CropLength            *int
	AttributesToHighlight []string

	// Filters is a filter expression, e.g. `genre = "comedy" AND year > 2000`.
	Filters string
	// TimeoutMs is forwarded to the server as a hint; it is not enforced
	// locally.
	TimeoutMs *int
	// Matches requests match positions under "_matchesInfo".
	Matches *bool
}

// encode renders the wire query of a search for q.
func (p *SearchParams) encode(q string) (url.Values, error) {
	b := query.New().Set("q", q)
	if p == nil {
		return b.Values()
	}
	return b.
		Int("offset", p.Offset).
		Int("limit", p.Limit).
		List("attributesToRetrieve", p.AttributesToRetrieve).
		List("attributesToSearchIn", p.AttributesToSearchIn).
		List("attributesToCrop", p.AttributesToCrop).
		Int("cropLength", p.CropLength).
		List("attributesToHighlight", p.AttributesToHighlight).
		String("filters", p.Filters).
		Int("timeoutMs", p.TimeoutMs).
		Bool("matches", p.Matches).
		Values()
}

// Search runs query against the index. The call is bound to the index
// cancellation domain: CancelSearches aborts it with ErrCanceled.
func (i *Index) Search(ctx context.Context, q string, params *SearchParams) (*SearchResponse, error) {
	return SearchAs[Document](ctx, i, q, params)
}

// SearchAs runs a search and decodes each hit into T.
func SearchAs[T any](ctx context.Context, idx *Index, q string, params *SearchParams) (*SearchResult[T], error) {
	values, err := params.encode(q)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", idx.uid, err)
	}

	path, err := idx.path("search")
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", idx.uid, err)
	}

	ctx, release := idx.bind(ctx)
	defer release()

	var out SearchResult[T]
	err = idx.caller.do(ctx, "search", rest.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  values,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", idx.uid, err)
	}
	return &out, nil
}
