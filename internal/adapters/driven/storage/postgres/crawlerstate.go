package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/nob-ogura/document-locator/internal/core/domain"
	"github.com/nob-ogura/document-locator/internal/core/ports/driven"
)

const (
	opStateUpsert = "crawler_state.upsert"
	opStateGet    = "crawler_state.get"
	opStateList   = "crawler_state.list"
	opStateDelete = "crawler_state.delete"
)

const upsertStateQuery = `insert into crawler_state (drive_id, start_page_token, last_run_at, last_status)
values ($1, $2, $3, $4)
on conflict (drive_id) do update set
    start_page_token = excluded.start_page_token,
    last_run_at = excluded.last_run_at,
    last_status = excluded.last_status,
    updated_at = timezone('utc', now())
returning drive_id, start_page_token, last_run_at, last_status, updated_at`

const selectStateColumns = "select drive_id, start_page_token, last_run_at, last_status, updated_at from crawler_state"

// CrawlerStateStore persists one crawl checkpoint per drive in the
// crawler_state table.
type CrawlerStateStore struct {
	src  ConnSource
	mode domain.ConnectionMode
}

var _ driven.CrawlerStateStore = (*CrawlerStateStore)(nil)

func NewCrawlerStateStore(src ConnSource, mode domain.ConnectionMode) *CrawlerStateStore {
	return &CrawlerStateStore{src: src, mode: mode}
}

// UpsertState writes the checkpoint for a drive and returns the stored row,
// including the server-assigned updated_at timestamp.
func (s *CrawlerStateStore) UpsertState(ctx context.Context, state domain.CrawlerState) (*domain.CrawlerState, error) {
	var stored *domain.CrawlerState
	err := s.src.WithTx(ctx, s.mode, func(q Querier) error {
		row := q.QueryRow(ctx, upsertStateQuery,
			state.DriveID, state.StartPageToken, state.LastRunAt, state.LastStatus)
		var err error
		stored, err = scanState(row)
		return err
	})
	if err != nil {
		return nil, s.fail(opStateUpsert, err)
	}
	return stored, nil
}

// GetState returns the checkpoint for a drive, or domain.ErrNotFound when
// no crawl has been recorded for it.
func (s *CrawlerStateStore) GetState(ctx context.Context, driveID string) (*domain.CrawlerState, error) {
	var stored *domain.CrawlerState
	err := s.src.WithConn(ctx, s.mode, func(q Querier) error {
		row := q.QueryRow(ctx, selectStateColumns+" where drive_id = $1", driveID)
		var err error
		stored, err = scanState(row)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: crawler state for drive %q", domain.ErrNotFound, driveID)
	}
	if err != nil {
		return nil, s.fail(opStateGet, err)
	}
	return stored, nil
}

// ListStates returns every checkpoint ordered by drive identifier.
func (s *CrawlerStateStore) ListStates(ctx context.Context) ([]domain.CrawlerState, error) {
	var states []domain.CrawlerState
	err := s.src.WithConn(ctx, s.mode, func(q Querier) error {
		rows, err := q.Query(ctx, selectStateColumns+" order by drive_id")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var state domain.CrawlerState
			if err := rows.Scan(&state.DriveID, &state.StartPageToken, &state.LastRunAt, &state.LastStatus, &state.UpdatedAt); err != nil {
				return fmt.Errorf("scanning crawler state: %w", err)
			}
			states = append(states, state)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail(opStateList, err)
	}
	return states, nil
}

// DeleteState removes the checkpoint for a drive and reports how many rows
// went away: zero when the drive had none.
func (s *CrawlerStateStore) DeleteState(ctx context.Context, driveID string) (int64, error) {
	var affected int64
	err := s.src.WithTx(ctx, s.mode, func(q Querier) error {
		tag, err := q.Exec(ctx, "delete from crawler_state where drive_id = $1", driveID)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, s.fail(opStateDelete, err)
	}
	return affected, nil
}

func (s *CrawlerStateStore) fail(op string, err error) error {
	slog.Error("repository operation failed", "operation", op, "mode", s.mode.String(), "error", err)
	return domain.NewRepositoryError(op, err)
}

func scanState(row pgx.Row) (*domain.CrawlerState, error) {
	var state domain.CrawlerState
	if err := row.Scan(&state.DriveID, &state.StartPageToken, &state.LastRunAt, &state.LastStatus, &state.UpdatedAt); err != nil {
		return nil, err
	}
	return &state, nil
}
