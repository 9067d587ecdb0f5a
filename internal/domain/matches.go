package domain

import "time"

// ConfidenceLevel buckets a confidence total into high/medium/low.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceBreakdown decomposes a match-quality score into its four
// weighted factors. Factors holds one human-readable string per
// contributing sub-score, in amount, date, customer, description order.
type ConfidenceBreakdown struct {
	AmountScore      int             `json:"amount_score"`      // 0-40
	DateScore        int             `json:"date_score"`        // 0-30
	CustomerScore    int             `json:"customer_score"`    // 0-20
	DescriptionScore int             `json:"description_score"` // 0-10
	Total            int             `json:"total"`             // 0-100
	Level            ConfidenceLevel `json:"level"`
	Factors          []string        `json:"factors"`
}

// DiscrepancyType classifies the kind of difference found between a
// paired (or unpaired) transaction and its counterpart.
type DiscrepancyType string

const (
	DiscrepancyTimingDifference   DiscrepancyType = "timing_difference"
	DiscrepancyAmountMismatch     DiscrepancyType = "amount_mismatch"
	DiscrepancyFeeNotRecorded     DiscrepancyType = "fee_not_recorded"
	DiscrepancyPartialPayment     DiscrepancyType = "partial_payment"
	DiscrepancyDuplicateEntry     DiscrepancyType = "duplicate_entry"
	DiscrepancyMissingInBooks     DiscrepancyType = "missing_in_books"
	DiscrepancyMissingInProcessor DiscrepancyType = "missing_in_processor"
	DiscrepancyCurrencyConversion DiscrepancyType = "currency_conversion"
	DiscrepancyRefundNotRecorded  DiscrepancyType = "refund_not_recorded"
	DiscrepancyUnknown            DiscrepancyType = "unknown"
)

// DiscrepancySeverity ranks how urgently a discrepancy needs attention.
type DiscrepancySeverity string

const (
	SeverityCritical DiscrepancySeverity = "critical"
	SeverityWarning  DiscrepancySeverity = "warning"
	SeverityInfo     DiscrepancySeverity = "info"
)

// DiscrepancyClassification describes a classified difference, with the
// optional numeric fields populated only when they carry meaning.
type DiscrepancyClassification struct {
	Type               DiscrepancyType     `json:"type"`
	Severity           DiscrepancySeverity `json:"severity"`
	Explanation        string              `json:"explanation"`
	SuggestedAction    string              `json:"suggested_action"`
	AutoResolvable     bool                `json:"auto_resolvable"`
	AmountDifference   *float64            `json:"amount_difference,omitempty"`
	DateDifferenceDays *int                `json:"date_difference_days,omitempty"`
}

// MatchStatus tracks the lifecycle of a match. The engine only ever
// creates auto_matched and suggested; the remaining states are set by
// downstream review flows.
type MatchStatus string

const (
	StatusAutoMatched MatchStatus = "auto_matched"
	StatusSuggested   MatchStatus = "suggested"
	StatusConfirmed   MatchStatus = "confirmed"
	StatusRejected    MatchStatus = "rejected"
	StatusResolved    MatchStatus = "resolved"
)

// Match pairs one processor transaction with at most one books entry.
// BooksExternalID is empty when no counterpart exists. Matches are
// immutable once created by the engine.
type Match struct {
	ID                  string                     `json:"id"`
	ActorID             string                     `json:"actor_id"`
	ProcessorExternalID string                     `json:"processor_external_id"`
	BooksExternalID     string                     `json:"books_external_id,omitempty"`
	Confidence          ConfidenceBreakdown        `json:"confidence"`
	MatchReason         string                     `json:"match_reason"`
	MatchedAt           time.Time                  `json:"matched_at"`
	Status              MatchStatus                `json:"status"`
	HasDiscrepancy      bool                       `json:"has_discrepancy"`
	Discrepancy         *DiscrepancyClassification `json:"discrepancy,omitempty"`
}

// PossibleMatch is a ranked candidate counterpart offered for a
// transaction that failed to match.
type PossibleMatch struct {
	Transaction       Transaction         `json:"transaction"`
	Confidence        ConfidenceBreakdown `json:"confidence"`
	WhyNotAutoMatched string              `json:"why_not_auto_matched"`
}

// Priority ranks how urgently an unmatched transaction needs review.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// UnmatchedTransaction is a leftover record with up to three ranked
// candidates and its own counterpart-less classification.
type UnmatchedTransaction struct {
	Transaction     Transaction                `json:"transaction"`
	PossibleMatches []PossibleMatch            `json:"possible_matches"`
	Classification  DiscrepancyClassification  `json:"classification"`
	DaysOld         int                        `json:"days_old"`
	Priority        Priority                   `json:"priority"`
}
