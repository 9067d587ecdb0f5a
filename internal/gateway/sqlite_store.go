package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/normalize"
)

const schema = `
CREATE TABLE IF NOT EXISTS reconciliation_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	period_start TEXT,
	period_end TEXT,
	duration_ms INTEGER NOT NULL,
	total_processor_transactions INTEGER NOT NULL,
	total_books_transactions INTEGER NOT NULL,
	total_processor_amount REAL NOT NULL,
	total_books_amount REAL NOT NULL,
	net_difference REAL NOT NULL,
	match_rate REAL NOT NULL,
	auto_match_rate REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	run_id INTEGER NOT NULL REFERENCES reconciliation_runs(id),
	actor_id TEXT NOT NULL,
	processor_external_id TEXT NOT NULL,
	books_external_id TEXT,
	confidence_total INTEGER NOT NULL,
	confidence_level TEXT NOT NULL,
	confidence_breakdown TEXT NOT NULL,
	match_reason TEXT NOT NULL,
	matched_at TEXT NOT NULL,
	status TEXT NOT NULL,
	has_discrepancy INTEGER NOT NULL,
	discrepancy_type TEXT,
	discrepancy_severity TEXT,
	discrepancy_explanation TEXT,
	discrepancy_suggested_action TEXT,
	discrepancy_auto_resolvable INTEGER NOT NULL DEFAULT 0,
	amount_difference REAL,
	date_difference_days INTEGER
);
CREATE TABLE IF NOT EXISTS unmatched_transactions (
	run_id INTEGER NOT NULL REFERENCES reconciliation_runs(id),
	external_id TEXT NOT NULL,
	source TEXT NOT NULL,
	type TEXT NOT NULL,
	amount REAL NOT NULL,
	date TEXT,
	customer_name TEXT,
	customer_name_normalized TEXT,
	classification_type TEXT NOT NULL,
	classification_severity TEXT NOT NULL,
	possible_matches INTEGER NOT NULL,
	days_old INTEGER NOT NULL,
	priority TEXT NOT NULL
);
`

// SQLiteResultStore persists reconciliation results for downstream
// review. The matching core never reads from it; this is write-only
// plumbing on the far side of the core boundary.
type SQLiteResultStore struct {
	db *sql.DB
}

// NewSQLiteResultStore opens (creating if needed) the database at path
// and ensures the schema exists.
func NewSQLiteResultStore(path string) (*SQLiteResultStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create result schema: %w", err)
	}
	return &SQLiteResultStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteResultStore) Close() error {
	return s.db.Close()
}

// SaveResult writes a full run (summary, matches, unmatched entries) in
// one transaction and returns the run row id.
func (s *SQLiteResultStore) SaveResult(ctx context.Context, actorID string, result *domain.ReconciliationResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO reconciliation_runs
		(actor_id, created_at, period_start, period_end, duration_ms,
		 total_processor_transactions, total_books_transactions,
		 total_processor_amount, total_books_amount, net_difference,
		 match_rate, auto_match_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		actorID,
		time.Now().UTC().Format(time.RFC3339),
		dateOrNull(result.PeriodStart),
		dateOrNull(result.PeriodEnd),
		result.DurationMS,
		result.Summary.TotalProcessorTransactions,
		result.Summary.TotalBooksTransactions,
		result.Summary.TotalProcessorAmount,
		result.Summary.TotalBooksAmount,
		result.Summary.NetDifference,
		result.Summary.MatchRate,
		result.Summary.AutoMatchRate,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, m := range result.Matched {
		if err := s.insertMatch(ctx, tx, runID, m); err != nil {
			return 0, err
		}
	}
	for _, u := range result.UnmatchedProcessor {
		if err := s.insertUnmatched(ctx, tx, runID, u); err != nil {
			return 0, err
		}
	}
	for _, u := range result.UnmatchedBooks {
		if err := s.insertUnmatched(ctx, tx, runID, u); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit result: %w", err)
	}
	return runID, nil
}

func (s *SQLiteResultStore) insertMatch(ctx context.Context, tx *sql.Tx, runID int64, m domain.Match) error {
	breakdown, err := json.Marshal(m.Confidence)
	if err != nil {
		return fmt.Errorf("failed to marshal confidence breakdown: %w", err)
	}

	var discType, discSeverity, discExplanation, discAction *string
	var discResolvable bool
	var amountDiff *float64
	var dateDiff *int
	if m.Discrepancy != nil {
		t := string(m.Discrepancy.Type)
		sev := string(m.Discrepancy.Severity)
		discType, discSeverity = &t, &sev
		discExplanation = &m.Discrepancy.Explanation
		discAction = &m.Discrepancy.SuggestedAction
		discResolvable = m.Discrepancy.AutoResolvable
		amountDiff = m.Discrepancy.AmountDifference
		dateDiff = m.Discrepancy.DateDifferenceDays
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO matches
		(id, run_id, actor_id, processor_external_id, books_external_id,
		 confidence_total, confidence_level, confidence_breakdown,
		 match_reason, matched_at, status, has_discrepancy,
		 discrepancy_type, discrepancy_severity, discrepancy_explanation,
		 discrepancy_suggested_action, discrepancy_auto_resolvable,
		 amount_difference, date_difference_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, runID, m.ActorID, m.ProcessorExternalID, nullIfEmpty(m.BooksExternalID),
		m.Confidence.Total, string(m.Confidence.Level), string(breakdown),
		m.MatchReason, m.MatchedAt.UTC().Format(time.RFC3339), string(m.Status), m.HasDiscrepancy,
		discType, discSeverity, discExplanation, discAction, discResolvable,
		amountDiff, dateDiff,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
	}
	return nil
}

func (s *SQLiteResultStore) insertUnmatched(ctx context.Context, tx *sql.Tx, runID int64, u domain.UnmatchedTransaction) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO unmatched_transactions
		(run_id, external_id, source, type, amount, date, customer_name,
		 customer_name_normalized, classification_type,
		 classification_severity, possible_matches, days_old, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		u.Transaction.ExternalID,
		string(u.Transaction.Source),
		string(u.Transaction.Type),
		u.Transaction.Amount,
		dateOrNull(u.Transaction.Date),
		nullIfEmpty(u.Transaction.CustomerName),
		nullIfEmpty(normalize.CustomerName(u.Transaction.CustomerName)),
		string(u.Classification.Type),
		string(u.Classification.Severity),
		len(u.PossibleMatches),
		u.DaysOld,
		string(u.Priority),
	)
	if err != nil {
		return fmt.Errorf("failed to insert unmatched %s: %w", u.Transaction.ExternalID, err)
	}
	return nil
}

func dateOrNull(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
