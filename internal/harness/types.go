package harness

import "github.com/roach88/sailors/internal/resultset"

// Status is the outcome of one check.
type Status string

const (
	// StatusPass: both sides returned equal result sets.
	StatusPass Status = "pass"

	// StatusFail: both sides ran but the result sets differ.
	StatusFail Status = "fail"

	// StatusError: the check could not be built, compiled or executed.
	StatusError Status = "error"
)

// Statement kinds recorded in the trace.
const (
	KindStructured = "structured"
	KindLiteral    = "literal"
)

// TraceEvent records one statement sent to the backend.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Check  string `json:"check"`
	Kind   string `json:"kind"` // "structured" or "literal"
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// CheckResult is the outcome of one check within a run.
type CheckResult struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`

	// StructuredSQL is empty when the query failed before compiling.
	StructuredSQL string `json:"structured_sql,omitempty"`
	Params        []any  `json:"params,omitempty"`

	// Rows and Fingerprint describe the structured result set.
	Rows        int    `json:"rows"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Mismatch *resultset.MismatchError `json:"mismatch,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset,omitempty"`

	Results []CheckResult `json:"results"`

	Total  int `json:"total"`
	Passed int `json:"passed"`
	// Failed counts both mismatches and errors; Errored counts errors only.
	Failed  int `json:"failed"`
	Errored int `json:"errored"`

	// Trace contains every statement in execution order.
	Trace []TraceEvent `json:"trace"`
}

// NewReport creates an empty report for a run.
func NewReport(runID, dataset string) *Report {
	return &Report{
		RunID:   runID,
		Dataset: dataset,
		Results: []CheckResult{},
		Trace:   []TraceEvent{},
	}
}

// OK reports whether every check passed. An empty run is OK.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// AddResult appends a check result and updates the counters.
func (r *Report) AddResult(res CheckResult) {
	r.Results = append(r.Results, res)
	r.Total++
	switch res.Status {
	case StatusPass:
		r.Passed++
	case StatusError:
		r.Failed++
		r.Errored++
	default:
		r.Failed++
	}
}

// AddTrace appends a statement to the trace.
func (r *Report) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
