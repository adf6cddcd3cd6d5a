package query

import (
	"fmt"
	"strings"

	"github.com/crimesense/casesearch/api/internal/schema"
)

// yearSegmentPattern is the strict form the third dash-separated segment of
// a case identifier must match to decode as a two-digit year.
const yearSegmentPattern = `^[0-9]{2}$`

// DimensionSQL renders the grouped (code, name, count) aggregation for one
// dimension column: values are trimmed, empty strings become NULL and are
// dropped, and the result is sorted by name. col must come from the column
// whitelist.
func DimensionSQL(col, whereSQL string) string {
	return fmt.Sprintf(`
		WITH base AS (
			SELECT NULLIF(TRIM((%[1]s)::text), '') AS code,
			       NULLIF(TRIM((%[1]s)::text), '') AS name
			FROM %[2]s
			WHERE %[3]s
		)
		SELECT code, name, COUNT(*) AS count
		FROM base
		WHERE code IS NOT NULL AND name IS NOT NULL
		GROUP BY code, name
		ORDER BY name ASC
	`, col, TableCases, whereSQL)
}

// YearExpr renders the per-row year expression: the incident date's year
// when the stored text is a strict date, otherwise the base year plus the
// two-digit numeric segment of the case identifier. Each arm is included
// only when its source column exists; rows matching neither yield NULL.
// Returns the empty string when no source column exists. The base year is
// bound through w so the caller's argument list stays consistent.
func YearExpr(cols schema.ColumnSet, yearBase int, w *Where) string {
	var exprs []string
	if cols.Has(ColIncidentDate) {
		exprs = append(exprs, fmt.Sprintf(
			"CASE WHEN %[1]s::text ~ '%[2]s' THEN EXTRACT(YEAR FROM CAST(%[1]s::text AS date))::int ELSE NULL END",
			ColIncidentDate, datePattern,
		))
	}
	if cols.Has(ColFIDSNo) {
		exprs = append(exprs, fmt.Sprintf(
			"CASE WHEN split_part(%[1]s,'-',3) ~ '%[2]s' THEN %[3]s::int + CAST(split_part(%[1]s,'-',3) AS int) ELSE NULL END",
			ColFIDSNo, yearSegmentPattern, w.Bind(yearBase),
		))
	}
	if len(exprs) == 0 {
		return ""
	}
	return "COALESCE(" + strings.Join(exprs, ", ") + ")"
}

// YearsSQL renders the grouped year-bucket aggregation over the given year
// expression, newest year first. Rows contributing no valid year are
// excluded.
func YearsSQL(yearExpr, whereSQL string) string {
	return fmt.Sprintf(`
		WITH base AS (
			SELECT %s AS yr
			FROM %s
			WHERE %s
		)
		SELECT yr AS code, yr AS name, COUNT(*) AS count
		FROM base
		WHERE yr IS NOT NULL
		GROUP BY yr
		ORDER BY yr DESC
	`, yearExpr, TableCases, whereSQL)
}
