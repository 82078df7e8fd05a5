// Package postgres provides a Postgres-backed implementation of the driven
// store interfaces, targeting a Supabase-managed database with the pgvector
// extension.
//
// This adapter uses github.com/jackc/pgx/v5 with pgxpool connection pooling.
// It implements two store interfaces:
//
//   - FileIndexStore: indexed document persistence and vector similarity search
//   - CrawlerStateStore: per-drive crawl checkpoint persistence
//
// # Connection Modes
//
// The Manager keeps one lazily-created pool per credential mode: "service"
// for the privileged service-role connection, "user" for anon-key access
// subject to row-level security. Every connection sets the configured schema
// as its search path and registers the pgvector types.
//
// # Schema
//
// The database schema is managed through versioned SQL migrations embedded
// in the migrations/ directory and applied by the Migrator in lexicographic
// order, each inside its own transaction.
//
// # Thread Safety
//
// All operations are thread-safe. Pool creation is serialised by the
// Manager's mutex; queries rely on pgxpool's internal synchronisation.
package postgres
