package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crimesense/casesearch/api/internal/database"
	"github.com/crimesense/casesearch/api/internal/models"
	"github.com/crimesense/casesearch/api/internal/query"
	"github.com/crimesense/casesearch/api/internal/schema"
)

// ErrNoIdentifierColumn signals that the cases table has neither of the
// candidate identifier columns. This is a deployment problem, not a
// not-found condition.
var ErrNoIdentifierColumn = errors.New("cases table has no identifier column (fids_no/case_id)")

// ListParams holds the parameters for a paginated case listing.
type ListParams struct {
	Filter   query.Filter
	Province string
	Amphur   string
	Tambol   string
	Limit    int
	Offset   int
}

// CaseRepository defines the interface for case data access operations.
// The column set is re-derived from the live catalog on every call, so the
// repository keeps working across schema changes without a restart.
type CaseRepository interface {
	// ListCases returns a page of cases plus the total row count under the
	// same predicate. Count and page run in one transaction so the total
	// always matches the page's snapshot.
	ListCases(ctx context.Context, p ListParams) (*models.CaseList, error)

	// FindByID returns the full row whose identifier matches caseID.
	// Returns nil, nil if no row matches (not an error).
	// Returns ErrNoIdentifierColumn when no identifier column exists.
	FindByID(ctx context.Context, caseID string) (models.CaseRecord, error)

	// AllFilters computes every dropdown dimension against the shared
	// predicate, falling back to unfiltered values for any dimension the
	// predicate leaves empty.
	AllFilters(ctx context.Context, f query.Filter) (*models.FilterSet, error)

	// ListCenters, ListProvinces, ListAmphurs and ListTambols are the
	// single-dimension variants; amphurs and tambols additionally filter by
	// their parent administrative units.
	ListCenters(ctx context.Context, f query.Filter) ([]models.FilterValue, error)
	ListProvinces(ctx context.Context, f query.Filter) ([]models.FilterValue, error)
	ListAmphurs(ctx context.Context, f query.Filter, province string) ([]models.FilterValue, error)
	ListTambols(ctx context.Context, f query.Filter, amphur, province string) ([]models.FilterValue, error)

	// Stats returns the cases row count; the evidences count defaults to 0
	// when that table is missing or unreadable.
	Stats(ctx context.Context) (*models.Stats, error)

	// Health probes the database and reports its version and clock.
	Health(ctx context.Context) (version string, now time.Time, err error)
}

// caseRepository is the concrete implementation of CaseRepository.
type caseRepository struct {
	db       *database.Database
	yearBase int
}

// NewCaseRepository creates a new instance of CaseRepository. yearBase is
// the epoch added to two-digit identifier year segments.
func NewCaseRepository(db *database.Database, yearBase int) CaseRepository {
	return &caseRepository{
		db:       db,
		yearBase: yearBase,
	}
}

// ListCases builds the predicate and projection from the live column set and
// runs the paginated list plus the unpaginated count in one transaction.
func (r *caseRepository) ListCases(ctx context.Context, p ListParams) (*models.CaseList, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols, err := schema.Introspect(ctx, tx, query.TableCases)
	if err != nil {
		return nil, err
	}

	w := query.NewWhere()
	w.ApplyFilter(p.Filter, cols)
	w.Eq(query.ColProvinceName, p.Province, cols)
	w.Eq(query.ColAmphurName, p.Amphur, cols)
	w.Eq(query.ColTambolName, p.Tambol, cols)
	whereSQL := w.SQL()

	// Count first: it shares the predicate arguments but not the
	// pagination ones, which are bound below.
	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", query.TableCases, whereSQL)
	if err := tx.QueryRow(ctx, countSQL, w.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	listSQL := fmt.Sprintf(`
		WITH base AS (
			SELECT %s
			FROM %s
			WHERE %s
		)
		SELECT * FROM base
		%s
		LIMIT %s OFFSET %s
	`, query.SelectList(cols), query.TableCases, whereSQL,
		query.OrderByIncidentDate(cols), w.Bind(p.Limit), w.Bind(p.Offset))

	rows, err := tx.Query(ctx, listSQL, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	items, err := collectCaseRecords(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.CaseList{Total: total, Items: items}, nil
}

// FindByID matches caseID against whichever identifier columns exist and
// returns the first matching row in full.
func (r *caseRepository) FindByID(ctx context.Context, caseID string) (models.CaseRecord, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols, err := schema.Introspect(ctx, tx, query.TableCases)
	if err != nil {
		return nil, err
	}

	var conds []string
	for _, col := range query.IdentifierColumns {
		if cols.Has(col) {
			conds = append(conds, col+" = $1")
		}
	}
	if len(conds) == 0 {
		return nil, ErrNoIdentifierColumn
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1",
		query.TableCases, strings.Join(conds, " OR "))
	rows, err := tx.Query(ctx, sql, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query case %q: %w", caseID, err)
	}
	records, err := collectCaseRecords(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// No matching row is not an error at the repository level
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// AllFilters computes all dimensions against one shared predicate in a
// single transaction. The year buckets run on the pool instead: their
// derivation can fail on malformed data and degrades to an empty list,
// and a failed statement must not poison the transaction carrying the
// other dimensions.
func (r *caseRepository) AllFilters(ctx context.Context, f query.Filter) (*models.FilterSet, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols, err := schema.Introspect(ctx, tx, query.TableCases)
	if err != nil {
		return nil, err
	}

	w := query.NewWhere()
	w.ApplyFilter(f, cols)
	whereSQL, args := w.SQL(), w.Args()

	set := &models.FilterSet{
		Centers:    []models.FilterValue{},
		Provinces:  []models.FilterValue{},
		Amphurs:    []models.FilterValue{},
		Tambols:    []models.FilterValue{},
		Categories: []models.FilterValue{},
		Years:      []models.YearBucket{},
	}

	dimensions := []struct {
		col  string
		dest *[]models.FilterValue
	}{
		{query.ColCenterCode, &set.Centers},
		{query.ColProvinceName, &set.Provinces},
		{query.ColAmphurName, &set.Amphurs},
		{query.ColTambolName, &set.Tambols},
		{query.ColCaseCategoryName, &set.Categories},
	}
	for _, d := range dimensions {
		if !cols.Has(d.col) {
			continue
		}
		values, err := r.fetchDimensionWithFallback(ctx, tx, d.col, whereSQL, args)
		if err != nil {
			return nil, err
		}
		*d.dest = values
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if years, err := r.fetchYears(ctx, cols, f); err == nil {
		set.Years = years
	}

	return set, nil
}

func (r *caseRepository) ListCenters(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	return r.listDimension(ctx, query.ColCenterCode, f, nil)
}

func (r *caseRepository) ListProvinces(ctx context.Context, f query.Filter) ([]models.FilterValue, error) {
	return r.listDimension(ctx, query.ColProvinceName, f, nil)
}

func (r *caseRepository) ListAmphurs(ctx context.Context, f query.Filter, province string) ([]models.FilterValue, error) {
	return r.listDimension(ctx, query.ColAmphurName, f, []extraEq{
		{query.ColProvinceName, province},
	})
}

func (r *caseRepository) ListTambols(ctx context.Context, f query.Filter, amphur, province string) ([]models.FilterValue, error) {
	return r.listDimension(ctx, query.ColTambolName, f, []extraEq{
		{query.ColAmphurName, amphur},
		{query.ColProvinceName, province},
	})
}

// Stats runs each count in its own implicit transaction: a failed evidences
// count inside a shared transaction would abort it and take the cases count
// down with it.
func (r *caseRepository) Stats(ctx context.Context) (*models.Stats, error) {
	var cases int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM cases").Scan(&cases); err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	var evidences int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM evidences").Scan(&evidences); err != nil {
		evidences = 0
	}

	return &models.Stats{Cases: cases, Evidences: evidences}, nil
}

// Health probes the database and reports its version and clock.
func (r *caseRepository) Health(ctx context.Context) (string, time.Time, error) {
	var version string
	if err := r.db.Pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to query database version: %w", err)
	}

	var now time.Time
	if err := r.db.Pool.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to query database clock: %w", err)
	}

	return version, now, nil
}

// extraEq is an additional exact-match predicate beyond the shared filter,
// used by the dependent dimension endpoints.
type extraEq struct {
	col   string
	value string
}

// listDimension runs one dimension aggregation, with fallback, in its own
// transaction. Returns an empty slice when the dimension column is absent.
func (r *caseRepository) listDimension(ctx context.Context, dimCol string, f query.Filter, extra []extraEq) ([]models.FilterValue, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cols, err := schema.Introspect(ctx, tx, query.TableCases)
	if err != nil {
		return nil, err
	}
	if !cols.Has(dimCol) {
		return []models.FilterValue{}, nil
	}

	w := query.NewWhere()
	w.ApplyFilter(f, cols)
	for _, e := range extra {
		w.Eq(e.col, e.value, cols)
	}

	values, err := r.fetchDimensionWithFallback(ctx, tx, dimCol, w.SQL(), w.Args())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return values, nil
}

// fetchDimensionWithFallback applies the fallback rule: an empty filtered
// aggregation is replaced by the unfiltered one, so a narrow filter never
// collapses a dropdown to nothing.
func (r *caseRepository) fetchDimensionWithFallback(ctx context.Context, q schema.Querier, col, whereSQL string, args []interface{}) ([]models.FilterValue, error) {
	values, err := r.fetchDimension(ctx, q, col, whereSQL, args)
	if err != nil {
		return nil, err
	}
	if len(values) > 0 {
		return values, nil
	}
	return r.fetchDimension(ctx, q, col, "1=1", nil)
}

func (r *caseRepository) fetchDimension(ctx context.Context, q schema.Querier, col, whereSQL string, args []interface{}) ([]models.FilterValue, error) {
	rows, err := q.Query(ctx, query.DimensionSQL(col, whereSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s values: %w", col, err)
	}
	defer rows.Close()

	values := []models.FilterValue{}
	for rows.Next() {
		var v models.FilterValue
		if err := rows.Scan(&v.Code, &v.Name, &v.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s value: %w", col, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s values: %w", col, err)
	}

	return values, nil
}

// fetchYears computes year buckets with the same fallback rule as the other
// dimensions. Returns an empty slice when neither source column exists.
func (r *caseRepository) fetchYears(ctx context.Context, cols schema.ColumnSet, f query.Filter) ([]models.YearBucket, error) {
	filtered := query.NewWhere()
	filtered.ApplyFilter(f, cols)
	yearExpr := query.YearExpr(cols, r.yearBase, filtered)
	if yearExpr == "" {
		return []models.YearBucket{}, nil
	}

	years, err := r.queryYears(ctx, query.YearsSQL(yearExpr, filtered.SQL()), filtered.Args())
	if err != nil {
		return nil, err
	}
	if len(years) > 0 {
		return years, nil
	}

	unfiltered := query.NewWhere()
	return r.queryYears(ctx, query.YearsSQL(query.YearExpr(cols, r.yearBase, unfiltered), unfiltered.SQL()), unfiltered.Args())
}

func (r *caseRepository) queryYears(ctx context.Context, sql string, args []interface{}) ([]models.YearBucket, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query year buckets: %w", err)
	}
	defer rows.Close()

	years := []models.YearBucket{}
	for rows.Next() {
		var y models.YearBucket
		if err := rows.Scan(&y.Code, &y.Name, &y.Count); err != nil {
			return nil, fmt.Errorf("failed to scan year bucket: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating year buckets: %w", err)
	}

	return years, nil
}

// collectCaseRecords reads every row into an alias-keyed record. The
// projection varies with the live schema, so rows are collected dynamically
// from the field descriptions rather than scanned into a fixed struct.
func collectCaseRecords(rows pgx.Rows) ([]models.CaseRecord, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := []models.CaseRecord{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read case row: %w", err)
		}
		record := make(models.CaseRecord, len(fields))
		for i, fd := range fields {
			record[fd.Name] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case rows: %w", err)
	}

	return records, nil
}
