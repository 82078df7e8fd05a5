package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nob-ogura/document-locator/internal/adapters/driven/config"
	"github.com/nob-ogura/document-locator/internal/adapters/driven/storage/postgres/migrations"
)

// applicationNameMigrate tags the migrator's unpooled connection so it is
// distinguishable from pooled traffic in pg_stat_activity.
const applicationNameMigrate = "document-locator:migrate"

const createMigrationsTable = `create table if not exists schema_migrations (
    version text primary key,
    applied_at timestamptz not null default timezone('utc', now())
)`

// MigrationStatus reports one discovered migration file.
type MigrationStatus struct {
	Version string
	Applied bool
}

// UpResult summarises one Up run. Applied lists the versions executed this
// run; Pending is only populated by dry runs.
type UpResult struct {
	Applied []string
	Pending []string
}

// migratorConn is the slice of pgx.Conn behaviour the migrator needs.
type migratorConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Migrator applies versioned SQL files in lexicographic order against the
// target schema and records each one in schema_migrations. It opens its own
// short-lived connection rather than borrowing from the pools.
type Migrator struct {
	cfg     *config.AppConfig
	fsys    fs.FS
	connect func(ctx context.Context) (migratorConn, error)
}

func NewMigrator(cfg *config.AppConfig) *Migrator {
	return &Migrator{
		cfg:     cfg,
		fsys:    migrations.FS,
		connect: defaultConnect(cfg),
	}
}

func defaultConnect(cfg *config.AppConfig) func(ctx context.Context) (migratorConn, error) {
	return func(ctx context.Context) (migratorConn, error) {
		connCfg, err := pgx.ParseConfig(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing database url: %w", err)
		}
		connCfg.Database = cfg.Database.Name
		connCfg.RuntimeParams["application_name"] = applicationNameMigrate
		conn, err := pgx.ConnectConfig(ctx, connCfg)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Up applies every pending migration in order, one transaction each,
// stopping at the first failure so already-applied migrations stay
// committed. With dryRun set it only reports what would run.
func (m *Migrator) Up(ctx context.Context, dryRun bool) (*UpResult, error) {
	versions, err := m.loadVersions()
	if err != nil {
		return nil, err
	}
	result := &UpResult{}
	if len(versions) == 0 {
		slog.Info("no migrations found")
		return result, nil
	}

	conn, err := m.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting for migration: %w", err)
	}
	defer conn.Close(ctx)

	applied, err := m.prepare(ctx, conn)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, version := range versions {
		if !applied[version] {
			pending = append(pending, version)
		}
	}
	if len(pending) == 0 {
		slog.Info("database already up-to-date", "applied", len(applied))
		return result, nil
	}
	if dryRun {
		result.Pending = pending
		return result, nil
	}

	for _, version := range pending {
		if err := m.apply(ctx, conn, version); err != nil {
			return nil, err
		}
		result.Applied = append(result.Applied, version)
	}
	slog.Info("applied migrations", "count", len(result.Applied))
	return result, nil
}

// Status reports every discovered migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	versions, err := m.loadVersions()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}

	conn, err := m.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting for migration: %w", err)
	}
	defer conn.Close(ctx)

	applied, err := m.prepare(ctx, conn)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(versions))
	for _, version := range versions {
		statuses = append(statuses, MigrationStatus{Version: version, Applied: applied[version]})
	}
	return statuses, nil
}

// loadVersions lists embedded *.sql files; fs.Glob returns them sorted,
// which fixes the execution order.
func (m *Migrator) loadVersions() ([]string, error) {
	versions, err := fs.Glob(m.fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	return versions, nil
}

// prepare makes the target schema and bookkeeping table exist, points the
// session's search path at the schema, and returns the applied-version set.
func (m *Migrator) prepare(ctx context.Context, conn migratorConn) (map[string]bool, error) {
	schema := pgx.Identifier{m.cfg.Database.Schema}.Sanitize()
	if _, err := conn.Exec(ctx, "create schema if not exists "+schema); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("set search_path to %s, public, extensions", schema)); err != nil {
		return nil, fmt.Errorf("setting search path: %w", err)
	}
	if _, err := conn.Exec(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("ensuring schema_migrations: %w", err)
	}

	rows, err := conn.Query(ctx, "select version from schema_migrations order by version")
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning applied migration: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	return applied, nil
}

// apply runs one migration file and its bookkeeping insert in a single
// transaction, so a failed migration leaves no partial state behind.
func (m *Migrator) apply(ctx context.Context, conn migratorConn, version string) error {
	sqlText, err := fs.ReadFile(m.fsys, version)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", version, err)
	}
	slog.Info("applying migration", "version", version)
	err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(sqlText)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			"insert into schema_migrations (version) values ($1) on conflict (version) do nothing",
			version)
		return err
	})
	if err != nil {
		slog.Error("migration failed", "version", version, "error", err)
		return fmt.Errorf("applying migration %s: %w", version, err)
	}
	return nil
}
