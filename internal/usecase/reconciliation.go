package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/normalize"
)

// possibleMatchFloor is the minimum confidence total for a candidate to
// be offered on an unmatched transaction.
const possibleMatchFloor = 30

// ReconciliationUseCase orchestrates the multi-phase matching of the
// processor ledger against the books ledger.
type ReconciliationUseCase struct {
	repo       TransactionRepository
	cfg        config.Config
	scorer     *Scorer
	classifier *Classifier
	now        func() time.Time
}

// Option configures a ReconciliationUseCase.
type Option func(*ReconciliationUseCase)

// WithClock overrides the time source used for run timestamps and
// age-in-days computation.
func WithClock(now func() time.Time) Option {
	return func(uc *ReconciliationUseCase) {
		uc.now = now
	}
}

// NewReconciliationUseCase creates a new instance of the usecase.
func NewReconciliationUseCase(repo TransactionRepository, cfg config.Config, opts ...Option) *ReconciliationUseCase {
	uc := &ReconciliationUseCase{
		repo:       repo,
		cfg:        cfg,
		scorer:     NewScorer(cfg),
		classifier: NewClassifier(cfg),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Run loads both ledgers through the repository and reconciles them.
func (uc *ReconciliationUseCase) Run(ctx context.Context, processorPath, booksPath, actorID string) (*domain.ReconciliationResult, error) {
	processorTxns, err := uc.repo.GetProcessorTransactions(ctx, processorPath)
	if err != nil {
		return nil, fmt.Errorf("could not get processor transactions: %w", err)
	}

	booksTxns, err := uc.repo.GetBooksTransactions(ctx, booksPath)
	if err != nil {
		return nil, fmt.Errorf("could not get books transactions: %w", err)
	}

	return uc.Reconcile(processorTxns, booksTxns, actorID), nil
}

// Reconcile pairs processor transactions with books entries. It is a
// pure function of its inputs and the configuration: no I/O, no shared
// state, deterministic pairings across repeated invocations.
//
// Phases:
//  1. auto-match: first high-confidence candidate, first-fit
//  2. suggested: best medium-confidence candidate, best-fit
//  3. fee-adjusted: books recorded the net amount after fees (charges only)
//  4. unmatched collection with ranked possible matches
func (uc *ReconciliationUseCase) Reconcile(processorTxns, booksTxns []domain.Transaction, actorID string) *domain.ReconciliationResult {
	started := uc.now()
	result := &domain.ReconciliationResult{
		Matched:            make([]domain.Match, 0),
		UnmatchedProcessor: make([]domain.UnmatchedTransaction, 0),
		UnmatchedBooks:     make([]domain.UnmatchedTransaction, 0),
	}

	matchedProcessor := make(map[string]bool)
	matchedBooks := make(map[string]bool)

	charges, refunds := splitProcessor(processorTxns)
	payments, credits := splitBooks(booksTxns)

	// Larger transactions first reduces ambiguity among same-amount
	// candidates. Credit pools sort on absolute value.
	sort.SliceStable(charges, func(i, j int) bool { return charges[i].Amount > charges[j].Amount })
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].Amount > payments[j].Amount })
	sort.SliceStable(refunds, func(i, j int) bool {
		return math.Abs(refunds[i].Amount) > math.Abs(refunds[j].Amount)
	})
	sort.SliceStable(credits, func(i, j int) bool {
		return math.Abs(credits[i].Amount) > math.Abs(credits[j].Amount)
	})

	// Phase 1: first-fit guarantees progress; the high band makes any
	// qualifying candidate safe to take immediately.
	uc.autoMatchPhase(result, charges, payments, matchedProcessor, matchedBooks, actorID)
	uc.autoMatchPhase(result, refunds, credits, matchedProcessor, matchedBooks, actorID)

	// Phase 2: remaining candidates are ambiguous, so switch to
	// best-fit; a greedy first pick could strand a better match.
	uc.suggestedMatchPhase(result, charges, payments, matchedProcessor, matchedBooks, actorID)
	uc.suggestedMatchPhase(result, refunds, credits, matchedProcessor, matchedBooks, actorID)

	// Phase 3 applies to the charge/payment pools only; fee netting
	// has no refund analogue.
	uc.feeAdjustedPhase(result, charges, payments, matchedProcessor, matchedBooks, actorID)

	// Phase 4: collect leftovers from both sides.
	today := normalize.Day(uc.now())

	for _, t := range append(append([]domain.Transaction{}, charges...), refunds...) {
		if matchedProcessor[t.ExternalID] {
			continue
		}
		candidates := payments
		if t.Type == domain.TypeRefund {
			candidates = credits
		}
		daysOld := normalize.DaysBetween(today, t.Date)
		result.UnmatchedProcessor = append(result.UnmatchedProcessor, domain.UnmatchedTransaction{
			Transaction:     t,
			PossibleMatches: uc.possibleMatches(t, candidates, matchedBooks, false),
			Classification:  uc.classifier.ClassifyUnmatched(t, domain.SourceProcessor),
			DaysOld:         daysOld,
			Priority:        DeterminePriority(t, daysOld),
		})
	}

	for _, t := range append(append([]domain.Transaction{}, payments...), credits...) {
		if matchedBooks[t.ExternalID] {
			continue
		}
		candidates := charges
		if t.Amount < 0 {
			candidates = refunds
		}
		daysOld := normalize.DaysBetween(today, t.Date)
		result.UnmatchedBooks = append(result.UnmatchedBooks, domain.UnmatchedTransaction{
			Transaction:     t,
			PossibleMatches: uc.possibleMatches(t, candidates, matchedProcessor, true),
			Classification:  uc.classifier.ClassifyUnmatched(t, domain.SourceBooks),
			DaysOld:         daysOld,
			Priority:        DeterminePriority(t, daysOld),
		})
	}

	uc.summarize(result, processorTxns, booksTxns)
	result.DurationMS = uc.now().Sub(started).Milliseconds()

	return result
}

// splitProcessor partitions the processor ledger into debit (charges)
// and credit (refunds) pools by kind.
func splitProcessor(txns []domain.Transaction) (charges, refunds []domain.Transaction) {
	for _, t := range txns {
		if t.Type == domain.TypeRefund {
			refunds = append(refunds, t)
		} else {
			charges = append(charges, t)
		}
	}
	return charges, refunds
}

// splitBooks partitions the books ledger into payment and credit pools.
// A negative amount forces the credit pool regardless of the declared
// kind; when the two signals disagree, the sign wins.
func splitBooks(txns []domain.Transaction) (payments, credits []domain.Transaction) {
	for _, t := range txns {
		if t.Type == domain.TypeCreditMemo || t.Type == domain.TypeRefund || t.Amount < 0 {
			credits = append(credits, t)
		} else {
			payments = append(payments, t)
		}
	}
	return payments, credits
}

// autoMatchPhase pairs each unmatched left record with the first
// high-confidence candidate in sorted order.
func (uc *ReconciliationUseCase) autoMatchPhase(result *domain.ReconciliationResult, lefts, rights []domain.Transaction, matchedLeft, matchedRight map[string]bool, actorID string) {
	for _, left := range lefts {
		if matchedLeft[left.ExternalID] {
			continue
		}
		for _, right := range rights {
			if matchedRight[right.ExternalID] {
				continue
			}
			confidence := uc.scorer.Score(left, right)
			if confidence.Level == domain.ConfidenceHigh {
				result.Matched = append(result.Matched, uc.createMatch(left, right, confidence, domain.StatusAutoMatched, actorID))
				matchedLeft[left.ExternalID] = true
				matchedRight[right.ExternalID] = true
				break
			}
		}
	}
}

// suggestedMatchPhase scans the entire remaining right pool and takes
// the highest-scoring medium-confidence candidate, if any.
func (uc *ReconciliationUseCase) suggestedMatchPhase(result *domain.ReconciliationResult, lefts, rights []domain.Transaction, matchedLeft, matchedRight map[string]bool, actorID string) {
	for _, left := range lefts {
		if matchedLeft[left.ExternalID] {
			continue
		}

		var best *domain.Transaction
		var bestConfidence domain.ConfidenceBreakdown

		for i := range rights {
			right := rights[i]
			if matchedRight[right.ExternalID] {
				continue
			}
			confidence := uc.scorer.Score(left, right)
			if confidence.Level == domain.ConfidenceMedium {
				if best == nil || confidence.Total > bestConfidence.Total {
					best = &rights[i]
					bestConfidence = confidence
				}
			}
		}

		if best != nil {
			result.Matched = append(result.Matched, uc.createMatch(left, *best, bestConfidence, domain.StatusSuggested, actorID))
			matchedLeft[left.ExternalID] = true
			matchedRight[best.ExternalID] = true
		}
	}
}

// feeAdjustedPhase finds payments recorded net of processing fees: the
// books amount equals the charge minus the actual or estimated fee
// within 0.5%, with dates inside the configured tolerance.
func (uc *ReconciliationUseCase) feeAdjustedPhase(result *domain.ReconciliationResult, charges, payments []domain.Transaction, matchedLeft, matchedRight map[string]bool, actorID string) {
	for _, left := range charges {
		if matchedLeft[left.ExternalID] {
			continue
		}

		feeSource := "estimated"
		expectedNet := left.Amount - (left.Amount*uc.cfg.FeePercent/100 + uc.cfg.FeeFixed)
		if raw, ok := left.Metadata[domain.MetadataFeeAmount]; ok {
			if fee := normalize.Amount(raw); fee != 0 {
				expectedNet = left.Amount - fee
				feeSource = "actual"
			}
		}

		for _, right := range payments {
			if matchedRight[right.ExternalID] {
				continue
			}
			if math.Abs(expectedNet-right.Amount) >= left.Amount*0.005 {
				continue
			}
			daysDiff := normalize.DaysBetween(left.Date, right.Date)
			if daysDiff < 0 {
				daysDiff = -daysDiff
			}
			if daysDiff > uc.cfg.DateToleranceDays {
				continue
			}

			dateScore := 20
			if daysDiff <= 1 {
				dateScore = 25
			}
			total := 55
			if daysDiff == 0 {
				total += 5
			}
			confidence := domain.ConfidenceBreakdown{
				AmountScore:      30,
				DateScore:        dateScore,
				CustomerScore:    0,
				DescriptionScore: 0,
				Total:            total,
				Level:            domain.ConfidenceMedium,
				Factors: []string{
					fmt.Sprintf("Amount matches after fee adjustment (%s fee)", feeSource),
					fmt.Sprintf("Processor gross: $%.2f", left.Amount),
					fmt.Sprintf("Expected net: $%.2f", expectedNet),
					fmt.Sprintf("Books: $%.2f", right.Amount),
				},
			}
			result.Matched = append(result.Matched, uc.createMatch(left, right, confidence, domain.StatusSuggested, actorID))
			matchedLeft[left.ExternalID] = true
			matchedRight[right.ExternalID] = true
			break
		}
	}
}

// createMatch builds the owned match record. A perfect score skips
// discrepancy classification entirely; an unknown classification does
// not count as a discrepancy.
func (uc *ReconciliationUseCase) createMatch(left, right domain.Transaction, confidence domain.ConfidenceBreakdown, status domain.MatchStatus, actorID string) domain.Match {
	var discrepancy *domain.DiscrepancyClassification
	if confidence.Total < 100 {
		d := uc.classifier.ClassifyPair(left, &right)
		discrepancy = &d
	}

	matchReason := "Manual review"
	if len(confidence.Factors) > 0 {
		matchReason = confidence.Factors[0]
	}

	return domain.Match{
		ID:                  uuid.NewString(),
		ActorID:             actorID,
		ProcessorExternalID: left.ExternalID,
		BooksExternalID:     right.ExternalID,
		Confidence:          confidence,
		MatchReason:         matchReason,
		MatchedAt:           uc.now(),
		Status:              status,
		HasDiscrepancy:      discrepancy != nil && discrepancy.Type != domain.DiscrepancyUnknown,
		Discrepancy:         discrepancy,
	}
}

// possibleMatches ranks up to three candidates scoring at least the
// floor. When the unmatched record is books-side, scoring is reversed
// so the processor record is always the left argument.
func (uc *ReconciliationUseCase) possibleMatches(t domain.Transaction, candidates []domain.Transaction, exclude map[string]bool, reverse bool) []domain.PossibleMatch {
	possible := make([]domain.PossibleMatch, 0)

	for _, candidate := range candidates {
		if exclude[candidate.ExternalID] {
			continue
		}

		var confidence domain.ConfidenceBreakdown
		if reverse {
			confidence = uc.scorer.Score(candidate, t)
		} else {
			confidence = uc.scorer.Score(t, candidate)
		}

		if confidence.Total >= possibleMatchFloor {
			possible = append(possible, domain.PossibleMatch{
				Transaction:       candidate,
				Confidence:        confidence,
				WhyNotAutoMatched: uc.whyNotMatched(confidence),
			})
		}
	}

	sort.SliceStable(possible, func(i, j int) bool {
		return possible[i].Confidence.Total > possible[j].Confidence.Total
	})
	if len(possible) > 3 {
		possible = possible[:3]
	}
	return possible
}

func (uc *ReconciliationUseCase) whyNotMatched(confidence domain.ConfidenceBreakdown) string {
	var issues []string

	if confidence.AmountScore < 25 {
		issues = append(issues, "amount differs significantly")
	}
	if confidence.DateScore < 15 {
		issues = append(issues, "dates too far apart")
	}
	if confidence.CustomerScore == 0 {
		issues = append(issues, "no customer match")
	}
	if confidence.Total < uc.cfg.AutoMatchThreshold {
		issues = append(issues, fmt.Sprintf("confidence %d below threshold %d", confidence.Total, uc.cfg.AutoMatchThreshold))
	}

	if len(issues) > 0 {
		return "Not auto-matched: " + strings.Join(issues, ", ")
	}
	return "Below confidence threshold"
}

func (uc *ReconciliationUseCase) summarize(result *domain.ReconciliationResult, processorTxns, booksTxns []domain.Transaction) {
	var totalProcessor, totalBooks float64
	for _, t := range processorTxns {
		totalProcessor += t.Amount
	}
	for _, t := range booksTxns {
		totalBooks += t.Amount
	}

	autoMatched := 0
	for _, m := range result.Matched {
		if m.Status == domain.StatusAutoMatched {
			autoMatched++
		}
	}

	matchRate := 0.0
	autoMatchRate := 0.0
	if len(processorTxns) > 0 {
		matchRate = float64(len(result.Matched)) / float64(len(processorTxns)) * 100
		autoMatchRate = float64(autoMatched) / float64(len(processorTxns)) * 100
	}

	result.Summary = domain.ReconciliationSummary{
		TotalProcessorTransactions: len(processorTxns),
		TotalBooksTransactions:     len(booksTxns),
		TotalProcessorAmount:       totalProcessor,
		TotalBooksAmount:           totalBooks,
		NetDifference:              totalProcessor - totalBooks,
		MatchRate:                  matchRate,
		AutoMatchRate:              autoMatchRate,
	}

	for _, t := range append(append([]domain.Transaction{}, processorTxns...), booksTxns...) {
		day := normalize.Day(t.Date)
		if result.PeriodStart.IsZero() || day.Before(result.PeriodStart) {
			result.PeriodStart = day
		}
		if result.PeriodEnd.IsZero() || day.After(result.PeriodEnd) {
			result.PeriodEnd = day
		}
	}
}
