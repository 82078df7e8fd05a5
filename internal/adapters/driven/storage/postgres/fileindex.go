package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nob-ogura/document-locator/internal/core/domain"
	"github.com/nob-ogura/document-locator/internal/core/ports/driven"
)

// Operation tags carried by repository errors from this store.
const (
	opFileUpsert = "file_index.upsert"
	opFileSearch = "file_index.search"
	opFileDelete = "file_index.delete"
)

// fileColumns is the fixed column order used by the batch upsert.
var fileColumns = []string{
	"file_id",
	"drive_id",
	"file_name",
	"summary",
	"keywords",
	"embedding",
	"mime_type",
	"last_modifier",
	"updated_at",
	"deleted_at",
}

// FileIndexStore persists indexed documents in the file_index table and
// serves vector similarity searches over their embeddings.
type FileIndexStore struct {
	src  ConnSource
	mode domain.ConnectionMode
}

var _ driven.FileIndexStore = (*FileIndexStore)(nil)

func NewFileIndexStore(src ConnSource, mode domain.ConnectionMode) *FileIndexStore {
	return &FileIndexStore{src: src, mode: mode}
}

// UpsertFiles inserts or refreshes a batch of records in one multi-row
// statement inside a single transaction. Conflicts on file_id overwrite
// every non-key column, so re-crawling the same files is idempotent.
// An empty batch touches nothing and reports zero rows.
func (s *FileIndexStore) UpsertFiles(ctx context.Context, files []domain.FileRecord) (int64, error) {
	if len(files) == 0 {
		return 0, nil
	}
	query, args, err := buildFileUpsert(files)
	if err != nil {
		return 0, err
	}

	var affected int64
	err = s.src.WithTx(ctx, s.mode, func(q Querier) error {
		tag, err := q.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, s.fail(opFileUpsert, err)
	}
	return affected, nil
}

// Search returns the records closest to the query embedding, ordered by
// ascending distance. Filters narrow by drive, file, soft-delete status,
// and a minimum similarity translated into a distance bound.
func (s *FileIndexStore) Search(ctx context.Context, query domain.FileSearchQuery) ([]domain.FileSearchResult, error) {
	sqlText, args, err := buildFileSearch(query)
	if err != nil {
		return nil, err
	}

	var results []domain.FileSearchResult
	err = s.src.WithConn(ctx, s.mode, func(q Querier) error {
		rows, err := q.Query(ctx, sqlText, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var r domain.FileSearchResult
			if err := rows.Scan(
				&r.FileID,
				&r.DriveID,
				&r.FileName,
				&r.Summary,
				&r.Keywords,
				&r.MimeType,
				&r.LastModifier,
				&r.UpdatedAt,
				&r.DeletedAt,
				&r.Distance,
			); err != nil {
				return fmt.Errorf("scanning search result: %w", err)
			}
			r.Similarity = distanceToSimilarity(r.Distance)
			results = append(results, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.fail(opFileSearch, err)
	}
	return results, nil
}

// MarkFileDeleted soft-deletes one file. Rows already carrying a deleted_at
// timestamp are left untouched, so the first deletion time is preserved.
func (s *FileIndexStore) MarkFileDeleted(ctx context.Context, fileID string, deletedAt *time.Time) (int64, error) {
	return s.markDeleted(ctx, "file_id = $2", fileID, deletedAt)
}

// MarkDriveDeleted soft-deletes every live file belonging to a drive.
func (s *FileIndexStore) MarkDriveDeleted(ctx context.Context, driveID string, deletedAt *time.Time) (int64, error) {
	return s.markDeleted(ctx, "drive_id = $2", driveID, deletedAt)
}

func (s *FileIndexStore) markDeleted(ctx context.Context, predicate, id string, deletedAt *time.Time) (int64, error) {
	ts := time.Now().UTC()
	if deletedAt != nil {
		ts = *deletedAt
	}
	query := "update file_index set deleted_at = $1 where deleted_at is null and " + predicate

	var affected int64
	err := s.src.WithTx(ctx, s.mode, func(q Querier) error {
		tag, err := q.Exec(ctx, query, ts, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, s.fail(opFileDelete, err)
	}
	return affected, nil
}

func (s *FileIndexStore) fail(op string, err error) error {
	slog.Error("repository operation failed", "operation", op, "mode", s.mode.String(), "error", err)
	return domain.NewRepositoryError(op, err)
}

func buildFileUpsert(files []domain.FileRecord) (string, []any, error) {
	width := len(fileColumns)
	args := make([]any, 0, len(files)*width)

	var sb strings.Builder
	sb.WriteString("insert into file_index (")
	sb.WriteString(strings.Join(fileColumns, ", "))
	sb.WriteString(")\nvalues ")
	for i, record := range files {
		literal, err := vectorLiteral(record.Embedding)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range width {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*width+j+1)
		}
		sb.WriteByte(')')
		args = append(args,
			record.FileID,
			record.DriveID,
			record.FileName,
			record.Summary,
			record.Keywords,
			literal,
			record.MimeType,
			record.LastModifier,
			record.UpdatedAt,
			record.DeletedAt,
		)
	}
	sb.WriteString("\non conflict (file_id) do update set\n")
	updates := make([]string, 0, width-1)
	for _, column := range fileColumns[1:] {
		updates = append(updates, fmt.Sprintf("    %s = excluded.%s", column, column))
	}
	sb.WriteString(strings.Join(updates, ",\n"))
	return sb.String(), args, nil
}

func buildFileSearch(query domain.FileSearchQuery) (string, []any, error) {
	literal, err := vectorLiteral(query.Embedding)
	if err != nil {
		return "", nil, err
	}

	limit := query.Limit
	if limit < 1 {
		limit = 1
	}
	if limit > domain.MaxSearchLimit {
		limit = domain.MaxSearchLimit
	}

	args := []any{literal}
	var filters []string
	if !query.IncludeDeleted {
		filters = append(filters, "deleted_at is null")
	}
	if ids := dedupe(query.DriveIDs); len(ids) > 0 {
		args = append(args, ids)
		filters = append(filters, fmt.Sprintf("drive_id = any($%d)", len(args)))
	}
	if ids := dedupe(query.FileIDs); len(ids) > 0 {
		args = append(args, ids)
		filters = append(filters, fmt.Sprintf("file_id = any($%d)", len(args)))
	}
	if query.MinSimilarity != nil {
		maxDistance, err := maxDistanceForSimilarity(*query.MinSimilarity)
		if err != nil {
			return "", nil, err
		}
		args = append(args, maxDistance)
		filters = append(filters, fmt.Sprintf("(embedding <-> $1::vector) <= $%d", len(args)))
	}
	args = append(args, limit)

	var sb strings.Builder
	sb.WriteString("select\n")
	sb.WriteString("    file_id,\n")
	sb.WriteString("    drive_id,\n")
	sb.WriteString("    file_name,\n")
	sb.WriteString("    summary,\n")
	sb.WriteString("    keywords,\n")
	sb.WriteString("    mime_type,\n")
	sb.WriteString("    last_modifier,\n")
	sb.WriteString("    updated_at,\n")
	sb.WriteString("    deleted_at,\n")
	sb.WriteString("    embedding <-> $1::vector as distance\n")
	sb.WriteString("from file_index")
	if len(filters) > 0 {
		sb.WriteString("\nwhere ")
		sb.WriteString(strings.Join(filters, " and "))
	}
	sb.WriteString("\norder by distance asc")
	fmt.Fprintf(&sb, "\nlimit $%d", len(args))
	return sb.String(), args, nil
}

// dedupe drops repeated identifiers while keeping first-seen order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
