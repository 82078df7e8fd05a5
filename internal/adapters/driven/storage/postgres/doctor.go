package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/nob-ogura/document-locator/internal/core/domain"
)

// Doctor verifies connectivity for one credential mode with a trivial
// round-trip query and prints the outcome. It returns true when the check
// passed.
func Doctor(ctx context.Context, src ConnSource, mode domain.ConnectionMode, stdout, stderr io.Writer) bool {
	err := src.WithConn(ctx, mode, func(q Querier) error {
		_, err := q.Exec(ctx, "select 1")
		return err
	})
	if err != nil {
		fmt.Fprintf(stderr, "Database connection failed (%s mode): %s\n", mode, err)
		return false
	}
	fmt.Fprintf(stdout, "Database connection OK (%s mode).\n", mode)
	return true
}
