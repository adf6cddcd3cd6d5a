package query

import (
	"fmt"
	"strings"

	"github.com/crimesense/casesearch/api/internal/schema"
)

// TableCases is the table this service reads from.
const TableCases = "cases"

// Physical column names on the cases table. Every identifier interpolated
// into SQL text in this package comes from this fixed whitelist; user input
// is only ever bound as a parameter.
const (
	ColFIDSNo            = "fids_no"
	ColCaseID            = "case_id"
	ColCenterCode        = "center_code"
	ColCaseBehavior      = "case_behavior"
	ColSceneDescription  = "scene_description"
	ColCaseCategoryName  = "case_category_name"
	ColPoliceStationName = "police_station_name"
	ColProvinceName      = "province_name"
	ColAmphurName        = "amphur_name"
	ColTambolName        = "tambol_name"
	ColIncidentDate      = "incident_date"
)

// IdentifierColumns lists the candidate case-identifier columns in
// preference order. At least one must exist for detail lookups.
var IdentifierColumns = []string{ColFIDSNo, ColCaseID}

// datePattern is the strict text form a stored incident date must match
// before it participates in date comparisons. The column may hold free-form
// text; non-conforming rows are excluded from date-filtered results rather
// than erroring the cast.
const datePattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

// Filter holds the shared filter parameters recognized by every endpoint.
// Empty fields contribute no condition.
type Filter struct {
	Center   string
	Category string
	DateFrom string // YYYY-MM-DD, validated upstream
	DateTo   string // YYYY-MM-DD, validated upstream
	Search   string // free-text, matched against behavior/scene columns
}

// Where accumulates a conjunction of SQL conditions with positional bind
// parameters. The zero condition set renders as the tautology "1=1" so a
// WHERE clause is always valid.
type Where struct {
	conds []string
	args  []interface{}
}

// NewWhere returns an empty condition builder.
func NewWhere() *Where {
	return &Where{}
}

// Bind appends a value to the argument list and returns its positional
// placeholder ($1, $2, ...).
func (w *Where) Bind(value interface{}) string {
	w.args = append(w.args, value)
	return fmt.Sprintf("$%d", len(w.args))
}

// And appends a condition to the conjunction.
func (w *Where) And(cond string) {
	w.conds = append(w.conds, cond)
}

// SQL renders the conjunction. With no conditions it returns "1=1" so the
// result matches all rows instead of producing invalid SQL.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return "1=1"
	}
	return "1=1 AND " + strings.Join(w.conds, " AND ")
}

// Args returns the bound parameter values in placeholder order.
func (w *Where) Args() []interface{} {
	return w.args
}

// Eq adds an exact-match condition when the value is non-empty and the
// column exists on the table. col must come from the column whitelist.
func (w *Where) Eq(col, value string, cols schema.ColumnSet) {
	if value == "" || !cols.Has(col) {
		return
	}
	w.And(col + " = " + w.Bind(value))
}

// ApplyFilter adds the shared predicate set. Each condition is independently
// gated on the presence of its backing column, so a request never references
// a column the table does not have.
func (w *Where) ApplyFilter(f Filter, cols schema.ColumnSet) {
	w.Eq(ColCenterCode, f.Center, cols)
	w.Eq(ColCaseCategoryName, f.Category, cols)

	if cols.Has(ColIncidentDate) {
		if f.DateFrom != "" {
			w.And(fmt.Sprintf(
				"(%[1]s::text ~ '%[2]s' AND CAST(%[1]s::text AS date) >= %[3]s)",
				ColIncidentDate, datePattern, w.Bind(f.DateFrom),
			))
		}
		if f.DateTo != "" {
			w.And(fmt.Sprintf(
				"(%[1]s::text ~ '%[2]s' AND CAST(%[1]s::text AS date) <= %[3]s)",
				ColIncidentDate, datePattern, w.Bind(f.DateTo),
			))
		}
	}

	if f.Search != "" {
		var targets []string
		if cols.Has(ColCaseBehavior) {
			targets = append(targets, ColCaseBehavior)
		}
		if cols.Has(ColSceneDescription) {
			targets = append(targets, ColSceneDescription)
		}
		if len(targets) > 0 {
			placeholder := w.Bind("%" + f.Search + "%")
			sub := make([]string, len(targets))
			for i, col := range targets {
				sub[i] = col + " ILIKE " + placeholder
			}
			w.And("(" + strings.Join(sub, " OR ") + ")")
		}
	}
}
