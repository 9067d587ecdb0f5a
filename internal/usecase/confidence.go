package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/normalize"
)

// mediumConfidence is the floor of the "medium" band. The high band
// starts at the configured auto-match threshold.
const mediumConfidence = 60

// Scorer computes a 0-100 match-quality score between a processor
// transaction and a books entry, decomposed into four weighted factors:
// amount (0-40), date (0-30), customer (0-20), description (0-10).
// Scoring is deterministic and never fails; missing optional fields
// simply contribute zero.
type Scorer struct {
	cfg config.Config
}

// NewScorer creates a scorer bound to the given parameters.
func NewScorer(cfg config.Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the confidence breakdown for pairing left with right.
// Factors are appended in amount, date, customer, description order.
func (s *Scorer) Score(left, right domain.Transaction) domain.ConfidenceBreakdown {
	factors := make([]string, 0, 4)

	amountScore := scoreAmount(left.Amount, right.Amount, &factors)
	dateScore := scoreDate(left.Date, right.Date, &factors)
	customerScore := scoreCustomer(left, right, &factors)
	descriptionScore := scoreDescription(left.Description, right.Description, &factors)

	total := amountScore + dateScore + customerScore + descriptionScore

	return domain.ConfidenceBreakdown{
		AmountScore:      amountScore,
		DateScore:        dateScore,
		CustomerScore:    customerScore,
		DescriptionScore: descriptionScore,
		Total:            total,
		Level:            s.level(total),
		Factors:          factors,
	}
}

func (s *Scorer) level(total int) domain.ConfidenceLevel {
	switch {
	case total >= s.cfg.AutoMatchThreshold:
		return domain.ConfidenceHigh
	case total >= mediumConfidence:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// scoreAmount compares absolute values so refund polarity does not
// penalize the score. A zero left amount forces the percent branch to
// its maximal value.
func scoreAmount(leftAmount, rightAmount float64, factors *[]string) int {
	lAbs := math.Abs(leftAmount)
	rAbs := math.Abs(rightAmount)
	diff := math.Abs(lAbs - rAbs)
	diffPercent := 100.0
	if lAbs > 0 {
		diffPercent = diff / lAbs * 100
	}

	switch {
	case diff < 0.01:
		*factors = append(*factors, "Exact amount match")
		return 40
	case diffPercent <= 0.01:
		*factors = append(*factors, "Amount within rounding tolerance")
		return 38
	case diffPercent <= 1:
		*factors = append(*factors, fmt.Sprintf("Amount within 1%% ($%.2f difference)", diff))
		return 30
	case diffPercent <= 3:
		*factors = append(*factors, fmt.Sprintf("Amount within 3%% ($%.2f difference)", diff))
		return 20
	case diffPercent <= 5:
		*factors = append(*factors, fmt.Sprintf("Amount within 5%% ($%.2f difference)", diff))
		return 15
	case diffPercent <= 10:
		*factors = append(*factors, fmt.Sprintf("Amount differs by %.1f%%", diffPercent))
		return 8
	default:
		*factors = append(*factors, fmt.Sprintf("Significant amount difference: %.1f%%", diffPercent))
		return 0
	}
}

func scoreDate(leftDate, rightDate time.Time, factors *[]string) int {
	daysDiff := normalize.DaysBetween(leftDate, rightDate)
	if daysDiff < 0 {
		daysDiff = -daysDiff
	}

	switch {
	case daysDiff == 0:
		*factors = append(*factors, "Same day")
		return 30
	case daysDiff == 1:
		*factors = append(*factors, "1 day apart")
		return 27
	case daysDiff <= 3:
		*factors = append(*factors, fmt.Sprintf("%d days apart", daysDiff))
		return 22
	case daysDiff <= 7:
		*factors = append(*factors, fmt.Sprintf("%d days apart (within week)", daysDiff))
		return 15
	case daysDiff <= 14:
		*factors = append(*factors, fmt.Sprintf("%d days apart (within 2 weeks)", daysDiff))
		return 8
	case daysDiff <= 30:
		*factors = append(*factors, fmt.Sprintf("%d days apart", daysDiff))
		return 3
	default:
		*factors = append(*factors, fmt.Sprintf("%d days apart (significant gap)", daysDiff))
		return 0
	}
}

func scoreCustomer(left, right domain.Transaction, factors *[]string) int {
	if left.CustomerID != "" && right.CustomerID != "" && left.CustomerID == right.CustomerID {
		*factors = append(*factors, "Customer ID exact match")
		return 20
	}

	if left.CustomerName != "" && right.CustomerName != "" {
		leftNorm := normalize.String(left.CustomerName)
		rightNorm := normalize.String(right.CustomerName)

		if leftNorm == rightNorm {
			*factors = append(*factors, "Customer name exact match")
			return 18
		}
		if strings.Contains(rightNorm, leftNorm) || strings.Contains(leftNorm, rightNorm) {
			*factors = append(*factors, "Customer name partial match")
			return 14
		}

		similarity := fuzzySimilarity(leftNorm, rightNorm)
		if similarity > 0.8 {
			*factors = append(*factors, "Customer name similar")
			return 10
		}
		if similarity > 0.6 {
			*factors = append(*factors, "Customer name somewhat similar")
			return 5
		}
	}

	return 0
}

func scoreDescription(leftDesc, rightDesc string, factors *[]string) int {
	if leftDesc == "" || rightDesc == "" {
		return 0
	}

	leftNorm := normalize.String(leftDesc)
	rightNorm := normalize.String(rightDesc)

	if leftNorm == rightNorm {
		*factors = append(*factors, "Description exact match")
		return 10
	}

	// Partial signals are only trustworthy past a minimum length.
	if len(leftNorm) > 5 && len(rightNorm) > 5 {
		if strings.Contains(rightNorm, leftNorm) || strings.Contains(leftNorm, rightNorm) {
			*factors = append(*factors, "Description partial match")
			return 7
		}

		similarity := fuzzySimilarity(leftNorm, rightNorm)
		if similarity > 0.7 {
			*factors = append(*factors, "Description similar")
			return 5
		}
		if similarity > 0.5 {
			return 2
		}
	}

	return 0
}

// fuzzySimilarity blends the Jaccard similarity of the two strings'
// character sets (0.6) with their length ratio (0.4). Character overlap
// is cheap and good enough here; edit distance would change the scores
// the rest of the pipeline is calibrated against.
func fuzzySimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	set1 := make(map[rune]struct{})
	for _, r := range s1 {
		set1[r] = struct{}{}
	}
	set2 := make(map[rune]struct{})
	for _, r := range s2 {
		set2[r] = struct{}{}
	}

	intersection := 0
	for r := range set1 {
		if _, ok := set2[r]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	jaccard := float64(intersection) / float64(union)

	len1 := float64(len([]rune(s1)))
	len2 := float64(len([]rune(s2)))
	lenRatio := math.Min(len1, len2) / math.Max(len1, len2)

	return jaccard*0.6 + lenRatio*0.4
}
