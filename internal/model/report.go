package model

// RowResult is one CSV row that reconciled successfully.
type RowResult struct {
	Line       int    `json:"line"`
	NaturalKey string `json:"naturalKey"`
	Name       string `json:"name"`
	Action     string `json:"action"` // "inserted" or "updated"
}

// RowFailure is one CSV row that failed reconciliation, with the underlying
// reason. Failures are data, not errors: they never abort the run.
type RowFailure struct {
	Line       int    `json:"line"`
	NaturalKey string `json:"naturalKey"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// Row actions recorded in RowResult.
const (
	ActionInserted = "inserted"
	ActionUpdated  = "updated"
)

// Report is the per-call accounting of an ingestion run. It is built fresh
// on every call and never persisted. Successes and Failures each preserve
// the relative order of their input rows.
type Report struct {
	Message        string       `json:"message"`
	TotalProcessed int          `json:"totalProcessed"`
	SuccessCount   int          `json:"successCount"`
	FailureCount   int          `json:"failureCount"`
	Successes      []RowResult  `json:"successes"`
	Failures       []RowFailure `json:"failures"`
}

// AddSuccess appends a success row and updates the counters.
func (r *Report) AddSuccess(row RowResult) {
	r.Successes = append(r.Successes, row)
	r.SuccessCount++
	r.TotalProcessed++
}

// AddFailure appends a failure row and updates the counters.
func (r *Report) AddFailure(row RowFailure) {
	r.Failures = append(r.Failures, row)
	r.FailureCount++
	r.TotalProcessed++
}
