package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nob-ogura/document-locator/internal/core/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func testRecord(fileID, driveID string) domain.FileRecord {
	return domain.FileRecord{
		FileID:       fileID,
		DriveID:      driveID,
		FileName:     "doc-" + fileID,
		Summary:      ptr("summary of " + fileID),
		Keywords:     ptr("alpha, beta"),
		Embedding:    []float64{0.1, 0.2, 0.3},
		MimeType:     ptr("application/vnd.google-apps.document"),
		LastModifier: ptr("Alex"),
		UpdatedAt:    time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestUpsertFiles_BatchInOneStatement(t *testing.T) {
	src := newFakeSource()
	src.q.execTag = pgconn.NewCommandTag("INSERT 0 2")
	store := NewFileIndexStore(src, domain.ModeService)

	affected, err := store.UpsertFiles(context.Background(),
		[]domain.FileRecord{testRecord("file-1", "drive-1"), testRecord("file-2", "drive-1")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	require.Len(t, src.q.statements, 1)
	assert.Equal(t, 1, src.txs)
	assert.Equal(t, []domain.ConnectionMode{domain.ModeService}, src.modes)

	stmt := src.q.statements[0]
	assert.Contains(t, stmt.sql, "insert into file_index")
	assert.Contains(t, stmt.sql, "on conflict (file_id) do update set")
	assert.Contains(t, stmt.sql, "embedding = excluded.embedding")

	require.Len(t, stmt.args, 20)
	assert.Equal(t, "file-1", stmt.args[0])
	assert.Equal(t, "file-2", stmt.args[10])
	assert.Equal(t, "[0.1,0.2,0.3]", stmt.args[5])
}

func TestUpsertFiles_EmptyBatchIssuesNothing(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeService)

	affected, err := store.UpsertFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Empty(t, src.q.statements)
	assert.Zero(t, src.txs)
}

func TestUpsertFiles_RejectsEmptyEmbedding(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeService)

	record := testRecord(uuid.NewString(), "drive-1")
	record.Embedding = nil

	_, err := store.UpsertFiles(context.Background(), []domain.FileRecord{record})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, src.q.statements)
}

func TestUpsertFiles_WrapsDatabaseError(t *testing.T) {
	src := newFakeSource()
	src.q.execErr = errors.New("connection reset")
	store := NewFileIndexStore(src, domain.ModeService)

	_, err := store.UpsertFiles(context.Background(),
		[]domain.FileRecord{testRecord("file-1", "drive-1")})
	require.Error(t, err)

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "file_index.upsert", repoErr.Op)
	assert.Contains(t, err.Error(), "file_index.upsert failed")
}

func TestSearch_BuildsDistanceQuery(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeUser)

	_, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding: []float64{0.5, 0.5},
		Limit:     10,
	})
	require.NoError(t, err)

	require.Len(t, src.q.statements, 1)
	assert.Equal(t, 1, src.conns)
	assert.Equal(t, []domain.ConnectionMode{domain.ModeUser}, src.modes)

	stmt := src.q.statements[0]
	assert.Contains(t, stmt.sql, "embedding <-> $1::vector as distance")
	assert.Contains(t, stmt.sql, "deleted_at is null")
	assert.Contains(t, stmt.sql, "order by distance asc")
	require.Len(t, stmt.args, 2)
	assert.Equal(t, "[0.5,0.5]", stmt.args[0])
	assert.Equal(t, 10, stmt.args[1])
}

func TestSearch_MinSimilarityBecomesDistanceBound(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeUser)

	_, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding:     []float64{1},
		Limit:         5,
		MinSimilarity: ptr(0.5),
	})
	require.NoError(t, err)

	stmt := src.q.statements[0]
	assert.Contains(t, stmt.sql, "(embedding <-> $1::vector) <= $2")
	require.Len(t, stmt.args, 3)
	assert.InDelta(t, 1.0, stmt.args[1], 1e-9)
}

func TestSearch_RejectsInvalidMinSimilarity(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeUser)

	for _, bad := range []float64{0, -0.1, 1.5} {
		_, err := store.Search(context.Background(), domain.FileSearchQuery{
			Embedding:     []float64{1},
			Limit:         5,
			MinSimilarity: ptr(bad),
		})
		require.Error(t, err, "min similarity %v", bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	assert.Empty(t, src.q.statements)
}

func TestSearch_FiltersAndDeduplication(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeUser)

	_, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding:      []float64{1},
		DriveIDs:       []string{"drive-1", "drive-1", "drive-2"},
		FileIDs:        []string{"file-9", "file-9"},
		Limit:          5,
		IncludeDeleted: true,
	})
	require.NoError(t, err)

	stmt := src.q.statements[0]
	assert.NotContains(t, stmt.sql, "deleted_at is null")
	assert.Contains(t, stmt.sql, "drive_id = any($2)")
	assert.Contains(t, stmt.sql, "file_id = any($3)")
	require.Len(t, stmt.args, 4)
	assert.Equal(t, []string{"drive-1", "drive-2"}, stmt.args[1])
	assert.Equal(t, []string{"file-9"}, stmt.args[2])
}

func TestSearch_LimitClamping(t *testing.T) {
	src := newFakeSource()
	store := NewFileIndexStore(src, domain.ModeUser)

	_, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding: []float64{1},
		Limit:     10_000,
	})
	require.NoError(t, err)
	stmt := src.q.statements[0]
	assert.Equal(t, domain.MaxSearchLimit, stmt.args[len(stmt.args)-1])

	_, err = store.Search(context.Background(), domain.FileSearchQuery{
		Embedding: []float64{1},
		Limit:     0,
	})
	require.NoError(t, err)
	stmt = src.q.statements[1]
	assert.Equal(t, 1, stmt.args[len(stmt.args)-1])
}

func TestSearch_ComputesSimilarity(t *testing.T) {
	updatedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	src := newFakeSource()
	src.q.queryRows = &fakeRows{rows: [][]any{
		{"file-1", "drive-1", "spec.md", "a summary", nil, "text/markdown", "Alex", updatedAt, nil, 0.25},
		{"file-2", "drive-1", "notes.md", nil, nil, nil, nil, updatedAt, nil, 3.0},
	}}
	store := NewFileIndexStore(src, domain.ModeUser)

	results, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding: []float64{1},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "file-1", results[0].FileID)
	require.NotNil(t, results[0].Summary)
	assert.Equal(t, "a summary", *results[0].Summary)
	assert.Nil(t, results[0].Keywords)
	assert.InDelta(t, 0.25, results[0].Distance, 1e-9)
	assert.InDelta(t, 0.8, results[0].Similarity, 1e-9)

	assert.Nil(t, results[1].Summary)
	assert.InDelta(t, 0.25, results[1].Similarity, 1e-9)
}

func TestSearch_WrapsDatabaseError(t *testing.T) {
	src := newFakeSource()
	src.q.queryErr = errors.New("timeout")
	store := NewFileIndexStore(src, domain.ModeUser)

	_, err := store.Search(context.Background(), domain.FileSearchQuery{
		Embedding: []float64{1},
		Limit:     5,
	})
	require.Error(t, err)

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "file_index.search", repoErr.Op)
}

func TestMarkFileDeleted(t *testing.T) {
	src := newFakeSource()
	src.q.execTag = pgconn.NewCommandTag("UPDATE 1")
	store := NewFileIndexStore(src, domain.ModeService)

	deletedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	affected, err := store.MarkFileDeleted(context.Background(), "file-1", &deletedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	stmt := src.q.statements[0]
	assert.Equal(t,
		"update file_index set deleted_at = $1 where deleted_at is null and file_id = $2",
		stmt.sql)
	assert.Equal(t, deletedAt, stmt.args[0])
	assert.Equal(t, "file-1", stmt.args[1])
}

func TestMarkFileDeleted_DefaultsToNow(t *testing.T) {
	src := newFakeSource()
	src.q.execTag = pgconn.NewCommandTag("UPDATE 0")
	store := NewFileIndexStore(src, domain.ModeService)

	before := time.Now().UTC()
	affected, err := store.MarkFileDeleted(context.Background(), "file-1", nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	ts, ok := src.q.statements[0].args[0].(time.Time)
	require.True(t, ok)
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(time.Now().UTC()))
}

func TestMarkDriveDeleted(t *testing.T) {
	src := newFakeSource()
	src.q.execTag = pgconn.NewCommandTag("UPDATE 7")
	store := NewFileIndexStore(src, domain.ModeService)

	affected, err := store.MarkDriveDeleted(context.Background(), "drive-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), affected)

	stmt := src.q.statements[0]
	assert.Contains(t, stmt.sql, "drive_id = $2")
	assert.Equal(t, "drive-1", stmt.args[1])
}

func TestMarkDeleted_WrapsDatabaseError(t *testing.T) {
	src := newFakeSource()
	src.q.execErr = errors.New("deadlock detected")
	store := NewFileIndexStore(src, domain.ModeService)

	_, err := store.MarkDriveDeleted(context.Background(), "drive-1", nil)
	require.Error(t, err)

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "file_index.delete", repoErr.Op)
}
