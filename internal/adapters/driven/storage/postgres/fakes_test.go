package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nob-ogura/document-locator/internal/core/domain"
)

// statement records one SQL round-trip issued through a fake querier.
type statement struct {
	sql  string
	args []any
}

// fakeQuerier records statements and serves canned responses, standing in
// for a pooled connection or transaction.
type fakeQuerier struct {
	statements []statement

	execTag pgconn.CommandTag
	execErr error

	queryRows *fakeRows
	queryErr  error

	rowValues []any
	rowErr    error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, statement{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return f.execTag, nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.statements = append(f.statements, statement{sql: sql, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryRows == nil {
		return &fakeRows{}, nil
	}
	return f.queryRows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.statements = append(f.statements, statement{sql: sql, args: args})
	return &fakeRow{values: f.rowValues, err: f.rowErr}
}

// fakeSource satisfies ConnSource, handing the same fake querier to every
// callback and counting how each scope was entered.
type fakeSource struct {
	q     *fakeQuerier
	conns int
	txs   int
	modes []domain.ConnectionMode
}

func newFakeSource() *fakeSource {
	return &fakeSource{q: &fakeQuerier{}}
}

func (s *fakeSource) WithConn(_ context.Context, mode domain.ConnectionMode, fn func(Querier) error) error {
	s.conns++
	s.modes = append(s.modes, mode)
	return fn(s.q)
}

func (s *fakeSource) WithTx(_ context.Context, mode domain.ConnectionMode, fn func(Querier) error) error {
	s.txs++
	s.modes = append(s.modes, mode)
	return fn(s.q)
}

// fakeRow serves one row of values through the pgx.Row interface.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignValues(dest, r.values)
}

// fakeRows serves a fixed result set through the pgx.Rows interface.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	return assignValues(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func assignValues(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan expected %d destinations, got %d", len(values), len(dest))
	}
	for i, value := range values {
		if err := assign(dest[i], value); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assign(dest, value any) error {
	switch d := dest.(type) {
	case *string:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to *string", value)
		}
		*d = s
	case **string:
		if value == nil {
			*d = nil
			return nil
		}
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to **string", value)
		}
		*d = &s
	case *float64:
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("cannot assign %T to *float64", value)
		}
		*d = f
	case *time.Time:
		ts, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("cannot assign %T to *time.Time", value)
		}
		*d = ts
	case **time.Time:
		if value == nil {
			*d = nil
			return nil
		}
		ts, ok := value.(time.Time)
		if !ok {
			return fmt.Errorf("cannot assign %T to **time.Time", value)
		}
		*d = &ts
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}
	return nil
}
