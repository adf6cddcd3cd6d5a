package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx needed to introspect the catalog. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so introspection can run inside the
// same transaction as the queries it guards.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ColumnSet is the set of column names currently defined on a table.
// It is the single source of truth for which filters, projections, and
// aggregations are active on a given request.
type ColumnSet map[string]struct{}

// Has reports whether the named column exists.
func (s ColumnSet) Has(col string) bool {
	_, ok := s[col]
	return ok
}

// HasAny reports whether at least one of the named columns exists.
func (s ColumnSet) HasAny(cols ...string) bool {
	for _, col := range cols {
		if s.Has(col) {
			return true
		}
	}
	return false
}

// NewColumnSet builds a ColumnSet from a list of column names.
func NewColumnSet(cols ...string) ColumnSet {
	set := make(ColumnSet, len(cols))
	for _, col := range cols {
		set[col] = struct{}{}
	}
	return set
}

// Introspect returns the columns currently defined on the given table in the
// public schema. It reflects the live catalog at call time; callers re-derive
// the set per request rather than caching it, so schema changes take effect
// immediately.
func Introspect(ctx context.Context, q Querier, table string) (ColumnSet, error) {
	rows, err := q.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns of %q: %w", table, err)
	}
	defer rows.Close()

	set := make(ColumnSet)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		set[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %q: %w", table, err)
	}

	return set, nil
}
