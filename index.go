package meili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// Index is a handle on one index. It shares the transport of the Client it
// came from and owns the cancellation domain of its searches.
// Safe for concurrent use.
type Index struct {
	uid    string
	caller *caller

	mu     sync.Mutex
	token  context.Context
	cancel context.CancelFunc
}

func newIndex(uid string, c *caller) *Index {
	idx := &Index{uid: uid, caller: c}
	idx.token, idx.cancel = context.WithCancel(context.Background())
	return idx
}

// UID returns the index identifier.
func (i *Index) UID() string { return i.uid }

// CancelSearches aborts every search issued through this handle that has not
// completed yet. Searches issued afterwards fail the same way until
// ResetCancellation is called. Other handles are not affected.
func (i *Index) CancelSearches() {
	i.mu.Lock()
	cancel := i.cancel
	i.mu.Unlock()
	cancel()
}

// ResetCancellation installs a fresh cancellation domain for later searches.
// Searches already bound to the previous domain keep that binding.
func (i *Index) ResetCancellation() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.token, i.cancel = context.WithCancel(context.Background())
}

// bind derives a context that ends when ctx ends or when the current
// cancellation domain is cancelled. release must be called once the call
// returns.
func (i *Index) bind(ctx context.Context) (context.Context, func()) {
	i.mu.Lock()
	token := i.token
	i.mu.Unlock()

	cause := fmt.Errorf("index %q: searches canceled: %w", i.uid, context.Canceled)
	merged, cancel := context.WithCancelCause(ctx)
	if token.Err() != nil {
		cancel(cause)
		return merged, func() {}
	}
	stop := context.AfterFunc(token, func() { cancel(cause) })
	return merged, func() {
		stop()
		cancel(nil)
	}
}

// path builds /indexes/{uid}/elems... Elements are used verbatim; ids must be
// escaped by the caller.
func (i *Index) path(elems ...string) (string, error) {
	if i.uid == "" {
		return "", fmt.Errorf("index uid: %w", ErrEmptyIdentifier)
	}
	p := "/indexes/" + url.PathEscape(i.uid)
	for _, e := range elems {
		if e == "" {
			return "", ErrEmptyIdentifier
		}
		p += "/" + e
	}
	return p, nil
}

// Show returns the index description.
func (i *Index) Show(ctx context.Context) (IndexInfo, error) {
	path, err := i.path()
	if err != nil {
		return IndexInfo{}, fmt.Errorf("show index %q: %w", i.uid, err)
	}
	var out IndexInfo
	if err = i.caller.do(ctx, "show_index", rest.Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return IndexInfo{}, fmt.Errorf("show index %q: %w", i.uid, err)
	}
	return out, nil
}

// UpdateIndex renames the index or sets its primary key.
func (i *Index) UpdateIndex(ctx context.Context, req UpdateIndexRequest) (IndexInfo, error) {
	path, err := i.path()
	if err != nil {
		return IndexInfo{}, fmt.Errorf("update index %q: %w", i.uid, err)
	}
	var out IndexInfo
	err = i.caller.do(ctx, "update_index", rest.Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   req,
	}, &out)
	if err != nil {
		return IndexInfo{}, fmt.Errorf("update index %q: %w", i.uid, err)
	}
	return out, nil
}

// DeleteIndex deletes the index with all its documents. The handle stays
// usable; later calls fail remotely.
func (i *Index) DeleteIndex(ctx context.Context) error {
	path, err := i.path()
	if err != nil {
		return fmt.Errorf("delete index %q: %w", i.uid, err)
	}
	if err = i.caller.do(ctx, "delete_index", rest.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return fmt.Errorf("delete index %q: %w", i.uid, err)
	}
	return nil
}

// GetStats returns the index statistics.
func (i *Index) GetStats(ctx context.Context) (IndexStats, error) {
	path, err := i.path("stats")
	if err != nil {
		return IndexStats{}, fmt.Errorf("index stats %q: %w", i.uid, err)
	}
	var out IndexStats
	if err = i.caller.do(ctx, "index_stats", rest.Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return IndexStats{}, fmt.Errorf("index stats %q: %w", i.uid, err)
	}
	return out, nil
}
