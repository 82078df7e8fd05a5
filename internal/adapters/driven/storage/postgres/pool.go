package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/nob-ogura/document-locator/internal/adapters/driven/config"
	"github.com/nob-ogura/document-locator/internal/core/domain"
)

// Pool sizing and the session parameters applied to every new connection.
const (
	poolMinConns   = 1
	poolMaxConns   = 5
	acquireTimeout = 10 * time.Second

	statementTimeoutMillis         = 10_000
	idleInTransactionTimeoutMillis = 5_000
)

// Querier is the subset of pgx behaviour the repositories use.
// Pooled connections and transactions both satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConnSource hands scoped database access to the repositories.
type ConnSource interface {
	// WithConn runs fn with a pooled connection for the given mode.
	// The connection is returned to the pool on every exit path.
	WithConn(ctx context.Context, mode domain.ConnectionMode, fn func(Querier) error) error

	// WithTx runs fn inside one transaction on a pooled connection:
	// committed when fn returns nil, rolled back otherwise.
	WithTx(ctx context.Context, mode domain.ConnectionMode, fn func(Querier) error) error
}

// Manager lazily creates and caches one connection pool per credential mode.
// Pool construction is serialised by a single mutex so at most one pool
// exists per mode; the mutex is not held while connections are in use.
type Manager struct {
	cfg *config.AppConfig

	mu    sync.Mutex
	pools map[domain.ConnectionMode]*pgxpool.Pool
}

var _ ConnSource = (*Manager)(nil)

// NewManager builds a pool manager over the given settings.
// No pool is created until the first connection request.
func NewManager(cfg *config.AppConfig) *Manager {
	return &Manager{
		cfg:   cfg,
		pools: make(map[domain.ConnectionMode]*pgxpool.Pool),
	}
}

// APIKey returns the Supabase key matching the mode: the service-role key
// for ModeService, the anon key for ModeUser. Pure lookup, no I/O.
// Unrecognised modes get no key rather than the elevated one.
func (m *Manager) APIKey(mode domain.ConnectionMode) string {
	switch mode {
	case domain.ModeService:
		return m.cfg.Supabase.ServiceRoleKey
	case domain.ModeUser:
		return m.cfg.Supabase.AnonKey
	default:
		return ""
	}
}

// WithConn acquires a connection from the mode's pool and runs fn with it.
// Acquisition is bounded by acquireTimeout; a blocked checkout fails rather
// than waiting forever. Failures are logged with the mode and returned
// unchanged — retry policy belongs to the caller.
func (m *Manager) WithConn(ctx context.Context, mode domain.ConnectionMode, fn func(Querier) error) error {
	conn, err := m.acquire(ctx, mode)
	if err != nil {
		return err
	}
	defer conn.Release()
	return fn(conn)
}

// WithTx acquires a connection and runs fn inside one transaction.
func (m *Manager) WithTx(ctx context.Context, mode domain.ConnectionMode, fn func(Querier) error) error {
	conn, err := m.acquire(ctx, mode)
	if err != nil {
		return err
	}
	defer conn.Release()
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// Reset closes and forgets every cached pool. Used by test harnesses to
// force clean state between runs; closing is best-effort.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for mode, pool := range m.pools {
		pool.Close()
		slog.Debug("closed connection pool", "mode", mode.String())
	}
	clear(m.pools)
}

func (m *Manager) acquire(ctx context.Context, mode domain.ConnectionMode) (*pgxpool.Conn, error) {
	pool, err := m.pool(ctx, mode)
	if err != nil {
		return nil, err
	}
	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	conn, err := pool.Acquire(acquireCtx)
	if err != nil {
		slog.Error("database connection failed", "mode", mode.String(), "error", err)
		return nil, err
	}
	return conn, nil
}

// pool returns the cached pool for the mode, constructing it on first use.
func (m *Manager) pool(ctx context.Context, mode domain.ConnectionMode) (*pgxpool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pool, ok := m.pools[mode]; ok {
		return pool, nil
	}

	poolCfg, err := m.poolConfig(mode)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		slog.Error("initialising connection pool failed", "mode", mode.String(), "error", err)
		return nil, err
	}
	m.pools[mode] = pool
	slog.Info("initialised connection pool",
		"mode", mode.String(),
		"schema", m.cfg.Database.Schema,
		"application", applicationName(mode),
		"api_key", maskSecret(m.APIKey(mode)))
	return pool, nil
}

func (m *Manager) poolConfig(mode domain.ConnectionMode) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(m.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	poolCfg.ConnConfig.Database = m.cfg.Database.Name
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName(mode)
	poolCfg.MinConns = poolMinConns
	poolCfg.MaxConns = poolMaxConns

	schema := m.cfg.Database.Schema
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return configureSession(ctx, conn, schema)
	}
	return poolCfg, nil
}

// sessionExecer is the slice of connection behaviour the session setup needs.
type sessionExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// configureSession applies the per-connection setup: search path, statement
// and idle-in-transaction timeouts, and pgvector type registration.
func configureSession(ctx context.Context, conn *pgx.Conn, schema string) error {
	if err := applySessionSettings(ctx, conn, schema); err != nil {
		return err
	}
	if err := pgxvector.RegisterTypes(ctx, conn); err != nil {
		return fmt.Errorf("registering vector types: %w", err)
	}
	return nil
}

func applySessionSettings(ctx context.Context, conn sessionExecer, schema string) error {
	statements := []string{
		"set search_path to " + pgx.Identifier{schema}.Sanitize(),
		fmt.Sprintf("set statement_timeout to %d", statementTimeoutMillis),
		fmt.Sprintf("set idle_in_transaction_session_timeout to %d", idleInTransactionTimeoutMillis),
	}
	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("configuring session: %w", err)
		}
	}
	return nil
}

func applicationName(mode domain.ConnectionMode) string {
	return "document-locator:" + mode.String()
}

// maskSecret keeps log lines from leaking full API keys.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
