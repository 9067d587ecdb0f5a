package domain

import "time"

// ReconciliationSummary provides high-level statistics of a run.
// Everything here is derived and recomputed on every run.
type ReconciliationSummary struct {
	TotalProcessorTransactions int     `json:"total_processor_transactions"`
	TotalBooksTransactions     int     `json:"total_books_transactions"`
	TotalProcessorAmount       float64 `json:"total_processor_amount"`
	TotalBooksAmount           float64 `json:"total_books_amount"`
	NetDifference              float64 `json:"net_difference"`
	MatchRate                  float64 `json:"match_rate"`
	AutoMatchRate              float64 `json:"auto_match_rate"`
}

// DiscrepancyCounts rolls up matched discrepancies by severity.
type DiscrepancyCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// ReconciliationResult is the complete output of one reconciliation
// run. It holds no references to shared state; each run produces a
// fresh result.
type ReconciliationResult struct {
	Matched            []Match                `json:"matched"`
	UnmatchedProcessor []UnmatchedTransaction `json:"unmatched_processor"`
	UnmatchedBooks     []UnmatchedTransaction `json:"unmatched_books"`
	Summary            ReconciliationSummary  `json:"summary"`
	PeriodStart        time.Time              `json:"period_start"`
	PeriodEnd          time.Time              `json:"period_end"`
	DurationMS         int64                  `json:"duration_ms"`
}

// DiscrepancyCounts tallies matches carrying a discrepancy by severity.
func (r *ReconciliationResult) DiscrepancyCounts() DiscrepancyCounts {
	var counts DiscrepancyCounts
	for _, m := range r.Matched {
		if !m.HasDiscrepancy || m.Discrepancy == nil {
			continue
		}
		switch m.Discrepancy.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityWarning:
			counts.Warning++
		default:
			counts.Info++
		}
	}
	return counts
}
