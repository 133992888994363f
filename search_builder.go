package meili

import "context"

// SearchRequest is a fluent builder over SearchParams.
type SearchRequest struct {
	idx    *Index
	query  string
	params SearchParams
}

// NewSearch starts a search for q.
func (i *Index) NewSearch(q string) *SearchRequest {
	return &SearchRequest{idx: i, query: q}
}

// Offset skips the first n hits.
func (r *SearchRequest) Offset(n int) *SearchRequest {
	r.params.Offset = Int(n)
	return r
}

// Limit caps the number of hits.
func (r *SearchRequest) Limit(n int) *SearchRequest {
	r.params.Limit = Int(n)
	return r
}

// Retrieve restricts the attributes returned per hit.
func (r *SearchRequest) Retrieve(attrs ...string) *SearchRequest {
	r.params.AttributesToRetrieve = append(r.params.AttributesToRetrieve, attrs...)
	return r
}

// SearchIn restricts the attributes the query is matched against.
func (r *SearchRequest) SearchIn(attrs ...string) *SearchRequest {
	r.params.AttributesToSearchIn = append(r.params.AttributesToSearchIn, attrs...)
	return r
}

// Crop crops the given attributes around the matched words.
func (r *SearchRequest) Crop(attrs ...string) *SearchRequest {
	r.params.AttributesToCrop = append(r.params.AttributesToCrop, attrs...)
	return r
}

// CropLength sets the crop window length.
func (r *SearchRequest) CropLength(n int) *SearchRequest {
	r.params.CropLength = Int(n)
	return r
}

// Highlight highlights matches in one or more attributes.
func (r *SearchRequest) Highlight(attrs ...string) *SearchRequest {
	r.params.AttributesToHighlight = append(r.params.AttributesToHighlight, attrs...)
	return r
}

// Filter sets the filter expression.
func (r *SearchRequest) Filter(expr string) *SearchRequest {
	r.params.Filters = expr
	return r
}

// TimeoutMs forwards a server-side search timeout hint.
func (r *SearchRequest) TimeoutMs(n int) *SearchRequest {
	r.params.TimeoutMs = Int(n)
	return r
}

// Matches toggles match positions in hits.
func (r *SearchRequest) Matches(on bool) *SearchRequest {
	r.params.Matches = Bool(on)
	return r
}

// Params returns a copy of the accumulated parameters.
func (r *SearchRequest) Params() SearchParams { return r.params }

// Do executes the search.
func (r *SearchRequest) Do(ctx context.Context) (*SearchResponse, error) {
	p := r.params
	return r.idx.Search(ctx, r.query, &p)
}
