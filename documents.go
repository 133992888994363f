package meili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/meili/internal/query"
	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// GetDocuments lists documents. params may be nil.
func (i *Index) GetDocuments(ctx context.Context, params *DocumentsParams) ([]Document, error) {
	return GetDocumentsAs[Document](ctx, i, params)
}

// GetDocumentsAs lists documents decoded into T.
func GetDocumentsAs[T any](ctx context.Context, idx *Index, params *DocumentsParams) ([]T, error) {
	b := query.New()
	if params != nil {
		b.Int("offset", params.Offset).
			Int("limit", params.Limit).
			List("attributesToRetrieve", params.AttributesToRetrieve)
	}
	values, err := b.Values()
	if err != nil {
		return nil, fmt.Errorf("get documents %q: %w", idx.uid, err)
	}

	path, err := idx.path("documents")
	if err != nil {
		return nil, fmt.Errorf("get documents %q: %w", idx.uid, err)
	}

	var out []T
	err = idx.caller.do(ctx, "get_documents", rest.Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  values,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get documents %q: %w", idx.uid, err)
	}
	return out, nil
}

// GetDocument returns one document by id.
func (i *Index) GetDocument(ctx context.Context, id string) (Document, error) {
	return GetDocumentAs[Document](ctx, i, id)
}

// GetDocumentAs returns one document decoded into T.
func GetDocumentAs[T any](ctx context.Context, idx *Index, id string) (T, error) {
	var out T
	path, err := idx.path("documents", url.PathEscape(id))
	if err != nil {
		return out, fmt.Errorf("get document %q: %w", id, err)
	}
	err = idx.caller.do(ctx, "get_document", rest.Request{
		Method: http.MethodGet,
		Path:   path,
	}, &out)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("get document %q: %w", id, err)
	}
	return out, nil
}

// AddDocuments adds documents or replaces those with the same id.
// docs is any JSON-encodable list. params may be nil.
func (i *Index) AddDocuments(ctx context.Context, docs any, params *AddDocumentsParams) (AsyncUpdate, error) {
	return i.pushDocuments(ctx, "add_documents", http.MethodPost, docs, params)
}

// UpdateDocuments adds documents or merges them into those with the same id.
func (i *Index) UpdateDocuments(ctx context.Context, docs any, params *AddDocumentsParams) (AsyncUpdate, error) {
	return i.pushDocuments(ctx, "update_documents", http.MethodPut, docs, params)
}

func (i *Index) pushDocuments(
	ctx context.Context, op, method string, docs any, params *AddDocumentsParams,
) (AsyncUpdate, error) {
	b := query.New()
	if params != nil {
		b.String("primaryKey", params.PrimaryKey)
	}
	values, err := b.Values()
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("%s %q: %w", op, i.uid, err)
	}

	path, err := i.path("documents")
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("%s %q: %w", op, i.uid, err)
	}

	var out AsyncUpdate
	err = i.caller.do(ctx, op, rest.Request{
		Method: method,
		Path:   path,
		Query:  values,
		Body:   docs,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("%s %q: %w", op, i.uid, err)
	}
	return out, nil
}

// DocumentID is any type usable as a document identifier. Integer ids are
// sent as JSON numbers in batch deletions.
type DocumentID interface {
	~string | ~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// DeleteDocument deletes one document by id.
func (i *Index) DeleteDocument(ctx context.Context, id string) (AsyncUpdate, error) {
	path, err := i.path("documents", url.PathEscape(id))
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete document %q: %w", id, err)
	}
	var out AsyncUpdate
	err = i.caller.do(ctx, "delete_document", rest.Request{
		Method: http.MethodDelete,
		Path:   path,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete document %q: %w", id, err)
	}
	return out, nil
}

// DeleteDocumentOf deletes one document by a string or integer id.
func DeleteDocumentOf[K DocumentID](ctx context.Context, idx *Index, id K) (AsyncUpdate, error) {
	return idx.DeleteDocument(ctx, fmt.Sprint(id))
}

// DeleteDocuments deletes a batch of documents by id.
func (i *Index) DeleteDocuments(ctx context.Context, ids []string) (AsyncUpdate, error) {
	return DeleteDocumentsOf(ctx, i, ids)
}

// DeleteDocumentsOf deletes a batch of documents by string or integer ids.
func DeleteDocumentsOf[K DocumentID](ctx context.Context, idx *Index, ids []K) (AsyncUpdate, error) {
	if ids == nil {
		ids = []K{}
	}
	path, err := idx.path("documents", "delete-batch")
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete documents %q: %w", idx.uid, err)
	}
	var out AsyncUpdate
	err = idx.caller.do(ctx, "delete_documents", rest.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   ids,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete documents %q: %w", idx.uid, err)
	}
	return out, nil
}

// DeleteAllDocuments deletes every document of the index.
func (i *Index) DeleteAllDocuments(ctx context.Context) (AsyncUpdate, error) {
	path, err := i.path("documents")
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete all documents %q: %w", i.uid, err)
	}
	var out AsyncUpdate
	err = i.caller.do(ctx, "delete_all_documents", rest.Request{
		Method: http.MethodDelete,
		Path:   path,
	}, &out)
	if err != nil {
		return AsyncUpdate{}, fmt.Errorf("delete all documents %q: %w", i.uid, err)
	}
	return out, nil
}
