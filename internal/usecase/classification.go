package usecase

import (
	"fmt"
	"math"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/normalize"
)

// Classifier determines the kind, severity, and suggested remediation
// of a discrepancy. Rules are evaluated in a fixed order and the first
// match wins, so the fee pattern is always checked before the generic
// amount mismatch.
type Classifier struct {
	cfg config.Config
}

// NewClassifier creates a classifier bound to the given parameters.
func NewClassifier(cfg config.Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// ClassifyPair classifies the discrepancy between a processor
// transaction and its books counterpart. A nil right side classifies
// as missing_in_books.
func (c *Classifier) ClassifyPair(left domain.Transaction, right *domain.Transaction) domain.DiscrepancyClassification {
	if right == nil {
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyMissingInBooks,
			Severity: domain.SeverityCritical,
			Explanation: fmt.Sprintf(
				"Transaction %s ($%.2f) exists in the processor ledger but has no matching entry in the books.",
				left.ExternalID, left.Amount),
			SuggestedAction: "Create a corresponding invoice or payment in the accounting system",
			AutoResolvable:  false,
		}
	}

	amountDiff := left.Amount - right.Amount
	amountDiffAbs := math.Abs(amountDiff)
	amountDiffPercent := 0.0
	if left.Amount > 0 {
		amountDiffPercent = amountDiffAbs / left.Amount * 100
	}
	daysDiff := normalize.DaysBetween(left.Date, right.Date)
	absDays := daysDiff
	if absDays < 0 {
		absDays = -absDays
	}

	// Fee pattern: the difference lines up with the processing fee.
	expectedFee := c.expectedFee(left)
	feeVariance := math.Abs(amountDiff - expectedFee)
	if feeVariance < left.Amount*0.005 && amountDiff > 0 {
		d := amountDiff
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyFeeNotRecorded,
			Severity: domain.SeverityWarning,
			Explanation: fmt.Sprintf(
				"The books show $%.2f but the processor charged $%.2f. The $%.2f difference likely represents processing fees (%.1f%% + $%.2f).",
				right.Amount, left.Amount, amountDiff, c.cfg.FeePercent, c.cfg.FeeFixed),
			SuggestedAction:  fmt.Sprintf("Record a fee expense of $%.2f in the accounting system", amountDiff),
			AutoResolvable:   true,
			AmountDifference: &d,
		}
	}

	// Timing difference: amounts match, dates do not.
	if amountDiffAbs < 0.01 && absDays > c.cfg.DateToleranceDays {
		days := absDays
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyTimingDifference,
			Severity: domain.SeverityInfo,
			Explanation: fmt.Sprintf(
				"Amounts match exactly, but dates differ by %d days. Processor: %s, books: %s.",
				absDays, left.Date.Format("Jan 02"), right.Date.Format("Jan 02")),
			SuggestedAction:    "Verify the transaction dates are acceptable for your records",
			AutoResolvable:     false,
			DateDifferenceDays: &days,
		}
	}

	// Partial payment pattern.
	if right.Amount < left.Amount && amountDiffPercent > 10 {
		d := amountDiff
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyPartialPayment,
			Severity: domain.SeverityWarning,
			Explanation: fmt.Sprintf(
				"The books show $%.2f but the processor shows $%.2f. This could be a partial payment or split transaction.",
				right.Amount, left.Amount),
			SuggestedAction:  "Check if there are additional related payments or if this needs adjustment",
			AutoResolvable:   false,
			AmountDifference: &d,
		}
	}

	// General amount mismatch.
	if amountDiffAbs > 0.01 {
		severity := domain.SeverityWarning
		if amountDiffPercent > 10 {
			severity = domain.SeverityCritical
		}
		d := amountDiff
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyAmountMismatch,
			Severity: severity,
			Explanation: fmt.Sprintf(
				"Amount discrepancy of $%.2f (%.1f%%). Processor: $%.2f, books: $%.2f.",
				amountDiffAbs, amountDiffPercent, left.Amount, right.Amount),
			SuggestedAction:  "Review both transactions to identify the source of the discrepancy",
			AutoResolvable:   false,
			AmountDifference: &d,
		}
	}

	// Terminal fallthrough: the rule set did not anticipate this input
	// shape. Kept explicit so real occurrences can be triaged.
	return domain.DiscrepancyClassification{
		Type:            domain.DiscrepancyUnknown,
		Severity:        domain.SeverityInfo,
		Explanation:     "This match requires manual review",
		SuggestedAction: "Review the transaction details",
		AutoResolvable:  false,
	}
}

// ClassifyUnmatched classifies a transaction that found no counterpart.
func (c *Classifier) ClassifyUnmatched(t domain.Transaction, source domain.Source) domain.DiscrepancyClassification {
	if source == domain.SourceProcessor {
		if t.Type == domain.TypeRefund {
			d := math.Abs(t.Amount)
			return domain.DiscrepancyClassification{
				Type:     domain.DiscrepancyRefundNotRecorded,
				Severity: domain.SeverityWarning,
				Explanation: fmt.Sprintf(
					"Refund %s ($%.2f) exists in the processor ledger but has no matching credit in the books.",
					t.ExternalID, math.Abs(t.Amount)),
				SuggestedAction:  "Create a credit memo or refund receipt in the accounting system",
				AutoResolvable:   false,
				AmountDifference: &d,
			}
		}
		return domain.DiscrepancyClassification{
			Type:     domain.DiscrepancyMissingInBooks,
			Severity: domain.SeverityCritical,
			Explanation: fmt.Sprintf(
				"Transaction %s ($%.2f) exists in the processor ledger but has no matching entry in the books.",
				t.ExternalID, t.Amount),
			SuggestedAction: "Create a corresponding invoice or payment in the accounting system",
			AutoResolvable:  false,
		}
	}

	return domain.DiscrepancyClassification{
		Type:     domain.DiscrepancyMissingInProcessor,
		Severity: domain.SeverityWarning,
		Explanation: fmt.Sprintf(
			"Books entry %s ($%.2f) has no matching processor transaction. This may be a manual payment.",
			t.ExternalID, math.Abs(t.Amount)),
		SuggestedAction: "Verify this payment was received outside the payment processor",
		AutoResolvable:  false,
	}
}

// expectedFee returns the actual fee from the transaction's side
// channel when present, otherwise the configured estimate.
func (c *Classifier) expectedFee(t domain.Transaction) float64 {
	if raw, ok := t.Metadata[domain.MetadataFeeAmount]; ok {
		if fee := normalize.Amount(raw); fee != 0 {
			return fee
		}
	}
	return t.Amount*c.cfg.FeePercent/100 + c.cfg.FeeFixed
}

// DeterminePriority ranks an unmatched transaction for review: large
// or stale entries are high, small recent ones low.
func DeterminePriority(t domain.Transaction, daysOld int) domain.Priority {
	if t.Amount > 1000 || daysOld > 14 {
		return domain.PriorityHigh
	}
	if t.Amount < 100 && daysOld < 7 {
		return domain.PriorityLow
	}
	return domain.PriorityMedium
}
