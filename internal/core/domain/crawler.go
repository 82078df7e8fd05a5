package domain

import "time"

// CrawlerState is the incremental-crawl checkpoint for one drive.
// A row is created on the first upsert and updated after every crawl cycle.
type CrawlerState struct {
	// DriveID identifies the crawled drive (primary key).
	DriveID string
	// StartPageToken is the Drive changes-API resume token.
	// nil means the next crawl must perform a full resync.
	StartPageToken *string
	// LastRunAt is when the last crawl cycle finished, nil before the first run.
	LastRunAt *time.Time
	// LastStatus records the outcome of the last cycle (e.g. "success",
	// "failed:timeout"), nil when never run.
	LastStatus *string
	// UpdatedAt is assigned by the database on every write, never by callers.
	UpdatedAt time.Time
}
