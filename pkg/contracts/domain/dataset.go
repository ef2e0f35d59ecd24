package domain

import "time"

// SubmissionReport summarizes what happened to one department's file
// during a consolidation run.
type SubmissionReport struct {
	Department  Department `json:"department"`
	File        string     `json:"file"`
	RowsRead    int        `json:"rows_read"`
	RowsKept    int        `json:"rows_kept"`
	RowsDropped int        `json:"rows_dropped"`
	RowsTagged  int        `json:"rows_tagged"`
	RowsSkipped int        `json:"rows_skipped"`
	Error       string     `json:"error,omitempty"`
}

// Failed reports whether the submission was unreadable as a whole.
func (r SubmissionReport) Failed() bool {
	return r.Error != ""
}

// Dataset is one consolidated snapshot: the full, ordered, deduplicated
// transaction sequence for a run plus the run's diagnostics. A Dataset
// is immutable once published; a new run replaces it wholesale.
type Dataset struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Transactions []Transaction      `json:"transactions"`
	Submissions  []SubmissionReport `json:"submissions"`
	SoftIssues   []ValidationIssue  `json:"soft_issues"`
	Dropped      []ValidationIssue  `json:"dropped"`
}

// Tagged returns the ids of transactions that carry at least one soft
// issue, for the dashboard's visibility column.
func (d *Dataset) Tagged() map[RowRef][]ValidationIssue {
	out := make(map[RowRef][]ValidationIssue)
	for _, is := range d.SoftIssues {
		out[is.Row] = append(out[is.Row], is)
	}
	return out
}

// SubmissionErrors returns the reports of submissions that failed to
// parse, so operators and the dashboard staleness banner can name them.
func (d *Dataset) SubmissionErrors() []SubmissionReport {
	var out []SubmissionReport
	for _, s := range d.Submissions {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}
