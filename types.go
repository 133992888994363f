package meili

import "time"

// IndexInfo describes one index.
type IndexInfo struct {
	Name       string    `json:"name"`
	UID        string    `json:"uid"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	PrimaryKey *string   `json:"primaryKey"`
}

// CreateIndexRequest is the body of Client.CreateIndex. UID is required.
type CreateIndexRequest struct {
	UID        string `json:"uid"`
	Name       string `json:"name,omitempty"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// UpdateIndexRequest is the body of Index.UpdateIndex.
type UpdateIndexRequest struct {
	Name       string `json:"name,omitempty"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// AsyncUpdate identifies a server-side update enqueued by a mutating call.
type AsyncUpdate struct {
	UpdateID int64 `json:"updateId"`
}

// Update processing states reported in UpdateStatus.Status.
const (
	UpdateEnqueued  = "enqueued"
	UpdateProcessed = "processed"
	UpdateFailed    = "failed"
)

// UpdateType names the kind of update and, for document updates, how many
// documents it carried.
type UpdateType struct {
	Name   string `json:"name"`
	Number int    `json:"number,omitempty"`
}

// UpdateStatus is the processing state of one AsyncUpdate.
type UpdateStatus struct {
	Status      string     `json:"status"`
	UpdateID    int64      `json:"updateId"`
	Type        UpdateType `json:"type"`
	Duration    float64    `json:"duration,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueuedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Done reports whether the update left the queue, successfully or not.
func (s UpdateStatus) Done() bool {
	return s.Status == UpdateProcessed || s.Status == UpdateFailed
}

// Keys are the private and public API keys derived from the master key.
type Keys struct {
	Private string `json:"private"`
	Public  string `json:"public"`
}

// IndexStats are per-index statistics.
type IndexStats struct {
	NumberOfDocuments int64          `json:"numberOfDocuments"`
	IsIndexing        bool           `json:"isIndexing"`
	FieldsFrequency   map[string]int `json:"fieldsFrequency"`
}

// Stats are database-wide statistics.
type Stats struct {
	DatabaseSize int64                 `json:"databaseSize"`
	LastUpdate   *time.Time            `json:"lastUpdate"`
	Indexes      map[string]IndexStats `json:"indexes"`
}

// Version describes the server build.
type Version struct {
	CommitSha  string `json:"commitSha"`
	BuildDate  string `json:"buildDate"`
	PkgVersion string `json:"pkgVersion"`
}

// SystemInformation is the host report of /sys-info. Its shape differs
// between the raw and pretty variants, so it is kept as decoded JSON.
type SystemInformation map[string]any

// Document is an untyped document as stored by the server.
type Document = map[string]any

// DocumentsParams are the optional parameters of Index.GetDocuments.
type DocumentsParams struct {
	Offset               *int
	Limit                *int
	AttributesToRetrieve []string
}

// AddDocumentsParams are the optional parameters of Index.AddDocuments and
// Index.UpdateDocuments.
type AddDocumentsParams struct {
	// PrimaryKey names the identifier attribute when the index has none yet.
	PrimaryKey string
}

// SearchResult is the answer to a search. Hits decode into T.
type SearchResult[T any] struct {
	Hits             []T    `json:"hits"`
	Offset           int    `json:"offset"`
	Limit            int    `json:"limit"`
	NbHits           int    `json:"nbHits"`
	ExhaustiveNbHits bool   `json:"exhaustiveNbHits"`
	ProcessingTimeMs int    `json:"processingTimeMs"`
	Query            string `json:"query"`
}

// SearchResponse is a search answer with untyped hits. Highlighted and
// cropped values appear under each hit's "_formatted" key, match positions
// under "_matchesInfo".
type SearchResponse = SearchResult[Document]

// Int returns a pointer to v, for optional integer parameters.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional boolean parameters.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for optional string settings.
func String(v string) *string { return &v }

// Attrs builds an attribute list. A single attribute and a one-element list
// are sent identically.
func Attrs(names ...string) []string { return names }
