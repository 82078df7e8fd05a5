package driven

import (
	"context"
	"time"

	"github.com/nob-ogura/document-locator/internal/core/domain"
)

// FileIndexStore persists indexed Drive documents and serves vector
// similarity search over them. Rows are soft-deleted only; no operation here
// physically removes them.
type FileIndexStore interface {
	// UpsertFiles inserts or replaces the given records in one statement and
	// one transaction, keyed by file_id. Returns the affected row count.
	// An empty batch is a no-op returning 0.
	UpsertFiles(ctx context.Context, files []domain.FileRecord) (int64, error)

	// Search returns records ordered by ascending vector distance to the
	// query embedding. The order among equal-distance rows is unspecified.
	Search(ctx context.Context, query domain.FileSearchQuery) ([]domain.FileSearchResult, error)

	// MarkFileDeleted soft-deletes one active file. deletedAt defaults to
	// now in UTC. Re-deleting an already-deleted file affects zero rows.
	MarkFileDeleted(ctx context.Context, fileID string, deletedAt *time.Time) (int64, error)

	// MarkDriveDeleted soft-deletes every active file of a drive.
	MarkDriveDeleted(ctx context.Context, driveID string, deletedAt *time.Time) (int64, error)
}

// CrawlerStateStore persists per-drive crawl checkpoints.
type CrawlerStateStore interface {
	// UpsertState inserts or updates the checkpoint keyed by drive_id and
	// returns the saved row. updated_at is always server-assigned.
	UpsertState(ctx context.Context, state domain.CrawlerState) (*domain.CrawlerState, error)

	// GetState retrieves the checkpoint for a drive.
	// Returns domain.ErrNotFound when none exists.
	GetState(ctx context.Context, driveID string) (*domain.CrawlerState, error)

	// ListStates returns all checkpoints ordered by drive_id.
	ListStates(ctx context.Context) ([]domain.CrawlerState, error)

	// DeleteState removes the checkpoint for a decommissioned drive and
	// returns the affected row count.
	DeleteState(ctx context.Context, driveID string) (int64, error)
}
