package models

// CaseRecord is a single row of the cases table, keyed by response alias.
// The projection is derived from the live schema per request, so records are
// maps rather than a fixed struct; absent columns simply have no key.
type CaseRecord map[string]interface{}

// CaseList is a page of cases plus the total number of rows matching the
// same filter predicate, independent of pagination.
type CaseList struct {
	Total int64        `json:"total"`
	Items []CaseRecord `json:"items"`
}

// FilterValue is one dropdown entry: a distinct non-empty value of a
// dimension column and the number of matching case rows carrying it.
type FilterValue struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// YearBucket is one year dropdown entry. Code and name carry the same
// four-digit year so the payload shape matches the other dimensions.
type YearBucket struct {
	Code  int   `json:"code"`
	Name  int   `json:"name"`
	Count int64 `json:"count"`
}

// FilterSet groups every dropdown dimension for the combined filters endpoint.
type FilterSet struct {
	Centers    []FilterValue `json:"centers"`
	Provinces  []FilterValue `json:"provinces"`
	Amphurs    []FilterValue `json:"amphurs"`
	Tambols    []FilterValue `json:"tambols"`
	Categories []FilterValue `json:"categories"`
	Years      []YearBucket  `json:"years"`
}

// Stats holds the table row counts reported by the stats endpoint.
type Stats struct {
	Cases     int64 `json:"cases"`
	Evidences int64 `json:"evidences"`
}
