package query

import (
	"fmt"
	"strings"

	"github.com/crimesense/casesearch/api/internal/schema"
)

// caseProjection maps physical columns to their response aliases, in the
// fixed order list responses use. The identifier column keeps a lowercase
// alias; the rest carry the human-readable labels the frontend expects.
var caseProjection = []struct {
	col   string
	alias string
}{
	{ColFIDSNo, "case_id"},
	{ColCenterCode, "CenterCode"},
	{ColCaseBehavior, "CaseBehavior"},
	{ColSceneDescription, "SceneDescription"},
	{ColCaseCategoryName, "CaseCategoryName"},
	{ColPoliceStationName, "PoliceStationName"},
	{ColProvinceName, "ProvinceName"},
	{ColAmphurName, "AmphurName"},
	{ColTambolName, "TambolName"},
	{ColIncidentDate, "IncidentDate"},
}

// SelectList renders the SELECT list for case list queries, including only
// columns present in the schema, in projection order. If none of the
// candidate columns exist it falls back to the identifier-only projection.
func SelectList(cols schema.ColumnSet) string {
	parts := make([]string, 0, len(caseProjection))
	for _, p := range caseProjection {
		if !cols.Has(p.col) {
			continue
		}
		if p.alias == "case_id" {
			parts = append(parts, p.col+" AS "+p.alias)
		} else {
			parts = append(parts, fmt.Sprintf("%s AS %q", p.col, p.alias))
		}
	}
	if len(parts) == 0 {
		return ColFIDSNo + " AS case_id"
	}
	return strings.Join(parts, ", ")
}

// OrderByIncidentDate renders the ORDER BY clause for list queries, newest
// first with missing dates last. Returns the empty string when the date
// column is absent, leaving the result unordered.
func OrderByIncidentDate(cols schema.ColumnSet) string {
	if !cols.Has(ColIncidentDate) {
		return ""
	}
	return `ORDER BY "IncidentDate" DESC NULLS LAST`
}
