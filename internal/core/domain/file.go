package domain

import "time"

// MaxSearchLimit caps the number of rows a single search may return.
const MaxSearchLimit = 100

// FileRecord is one indexed Drive document as stored in the file_index table.
type FileRecord struct {
	// FileID is the Drive file identifier (primary key).
	FileID string
	// DriveID identifies the shared drive the file belongs to.
	DriveID string
	// FileName is the display name at index time.
	FileName string
	// Summary is an LLM-generated abstract, nil when not yet summarised.
	Summary *string
	// Keywords is a comma-separated keyword list, nil when absent.
	Keywords *string
	// Embedding is the vector representation; must contain at least one element.
	Embedding []float64
	// MimeType is the Drive MIME type, nil when unknown.
	MimeType *string
	// LastModifier is the display name of the last editor, nil when unknown.
	LastModifier *string
	// UpdatedAt is the Drive-side modification timestamp.
	UpdatedAt time.Time
	// DeletedAt marks a soft-deleted row; nil means the record is active.
	DeletedAt *time.Time
}

// FileSearchResult is a FileRecord projection returned by similarity search.
// It is read-only and never persisted.
type FileSearchResult struct {
	FileID       string
	DriveID      string
	FileName     string
	Summary      *string
	Keywords     *string
	MimeType     *string
	LastModifier *string
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	// Distance is the raw vector distance to the query embedding.
	Distance float64
	// Similarity is the bounded transform 1/(1+distance), in (0, 1].
	Similarity float64
}

// FileSearchQuery describes one similarity search over the file index.
type FileSearchQuery struct {
	// Embedding is the query vector; must contain at least one element.
	Embedding []float64
	// DriveIDs restricts results to the given drives when non-empty.
	DriveIDs []string
	// FileIDs restricts results to the given files when non-empty.
	FileIDs []string
	// Limit is clamped to [1, MaxSearchLimit].
	Limit int
	// MinSimilarity, when non-nil, must lie in (0, 1] and is converted to a
	// maximum-distance bound.
	MinSimilarity *float64
	// IncludeDeleted also returns soft-deleted rows when true.
	IncludeDeleted bool
}
