package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/usecase"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func processorTxn(id string, amount float64, date time.Time, customerName string) domain.Transaction {
	return domain.Transaction{
		ExternalID:   id,
		Source:       domain.SourceProcessor,
		Type:         domain.TypeCharge,
		Amount:       amount,
		Date:         date,
		CustomerName: customerName,
	}
}

func booksTxn(id string, amount float64, date time.Time, customerName string) domain.Transaction {
	return domain.Transaction{
		ExternalID:   id,
		Source:       domain.SourceBooks,
		Type:         domain.TypePayment,
		Amount:       amount,
		Date:         date,
		CustomerName: customerName,
	}
}

func TestScorer_AmountBands(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	tests := []struct {
		name        string
		leftAmount  float64
		rightAmount float64
		expected    int
	}{
		{name: "exact match", leftAmount: 100.00, rightAmount: 100.00, expected: 40},
		{name: "within 1 percent", leftAmount: 100.00, rightAmount: 99.50, expected: 30},
		{name: "within 3 percent", leftAmount: 100.00, rightAmount: 98.00, expected: 20},
		{name: "within 5 percent", leftAmount: 100.00, rightAmount: 96.00, expected: 15},
		{name: "within 10 percent", leftAmount: 100.00, rightAmount: 92.00, expected: 8},
		{name: "significant difference", leftAmount: 100.00, rightAmount: 80.00, expected: 0},
		{name: "zero left amount forces percent branch", leftAmount: 0.00, rightAmount: 50.00, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := processorTxn("ch_1", tt.leftAmount, date, "")
			right := booksTxn("bk_1", tt.rightAmount, date, "")

			breakdown := scorer.Score(left, right)

			assert.Equal(t, tt.expected, breakdown.AmountScore)
		})
	}
}

func TestScorer_SignIgnoredForAmount(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	left := processorTxn("re_1", -100.00, date, "")
	left.Type = domain.TypeRefund
	right := booksTxn("cm_1", -100.00, date, "")
	right.Type = domain.TypeCreditMemo

	breakdown := scorer.Score(left, right)

	assert.Equal(t, 40, breakdown.AmountScore)
}

func TestScorer_DateBands(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	base := day(2025, 1, 15)

	tests := []struct {
		name     string
		daysOff  int
		expected int
	}{
		{name: "same day", daysOff: 0, expected: 30},
		{name: "one day apart", daysOff: 1, expected: 27},
		{name: "three days apart", daysOff: 3, expected: 22},
		{name: "within week", daysOff: 5, expected: 15},
		{name: "within two weeks", daysOff: 10, expected: 8},
		{name: "within month", daysOff: 20, expected: 3},
		{name: "significant gap", daysOff: 45, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := processorTxn("ch_1", 100.00, base, "")
			right := booksTxn("bk_1", 100.00, base.AddDate(0, 0, tt.daysOff), "")

			breakdown := scorer.Score(left, right)

			assert.Equal(t, tt.expected, breakdown.DateScore)
		})
	}
}

func TestScorer_CustomerMatching(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	t.Run("customer id exact match", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		left.CustomerID = "cust_1"
		right := booksTxn("bk_1", 100.00, date, "Totally Different")
		right.CustomerID = "cust_1"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 20, breakdown.CustomerScore)
		assert.Contains(t, breakdown.Factors, "Customer ID exact match")
	})

	t.Run("name exact match after normalization", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		right := booksTxn("bk_1", 100.00, date, "ACME CORP!")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 18, breakdown.CustomerScore)
	})

	t.Run("name partial match", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		right := booksTxn("bk_1", 100.00, date, "Acme")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 14, breakdown.CustomerScore)
	})

	t.Run("unrelated names score zero", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Johnson")
		right := booksTxn("bk_1", 100.00, date, "Smith")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 0, breakdown.CustomerScore)
	})

	t.Run("missing names score zero", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		right := booksTxn("bk_1", 100.00, date, "Acme")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 0, breakdown.CustomerScore)
	})
}

func TestScorer_DescriptionMatching(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	t.Run("exact match", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		left.Description = "Payment for invoice 1001"
		right := booksTxn("bk_1", 100.00, date, "")
		right.Description = "payment for invoice 1001!"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 10, breakdown.DescriptionScore)
	})

	t.Run("substring containment", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		left.Description = "invoice 1001"
		right := booksTxn("bk_1", 100.00, date, "")
		right.Description = "Payment for invoice 1001 March"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 7, breakdown.DescriptionScore)
	})

	t.Run("missing description scores zero", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		right := booksTxn("bk_1", 100.00, date, "")
		right.Description = "Payment for invoice 1001"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 0, breakdown.DescriptionScore)
	})

	t.Run("short strings skip partial scoring", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		left.Description = "ab"
		right := booksTxn("bk_1", 100.00, date, "")
		right.Description = "abc"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 0, breakdown.DescriptionScore)
	})
}

func TestScorer_TotalAndLevel(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	t.Run("perfect pairing scores 100 and high", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Acme")
		left.CustomerID = "cust_1"
		left.Description = "Invoice 1001"
		right := booksTxn("bk_1", 100.00, date, "Acme")
		right.CustomerID = "cust_1"
		right.Description = "Invoice 1001"

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 100, breakdown.Total)
		assert.Equal(t, domain.ConfidenceHigh, breakdown.Level)
	})

	t.Run("total equals sum of sub-scores", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		right := booksTxn("bk_1", 98.00, date.AddDate(0, 0, 2), "Acme")

		breakdown := scorer.Score(left, right)

		sum := breakdown.AmountScore + breakdown.DateScore + breakdown.CustomerScore + breakdown.DescriptionScore
		assert.Equal(t, sum, breakdown.Total)
		assert.GreaterOrEqual(t, breakdown.AmountScore, 0)
		assert.LessOrEqual(t, breakdown.AmountScore, 40)
		assert.LessOrEqual(t, breakdown.DateScore, 30)
		assert.LessOrEqual(t, breakdown.CustomerScore, 20)
		assert.LessOrEqual(t, breakdown.DescriptionScore, 10)
	})

	t.Run("medium band", func(t *testing.T) {
		// 20 (amount) + 27 (date) + 18 (customer) = 65
		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		right := booksTxn("bk_1", 98.00, date.AddDate(0, 0, 1), "Acme Corp")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 65, breakdown.Total)
		assert.Equal(t, domain.ConfidenceMedium, breakdown.Level)
	})

	t.Run("low band", func(t *testing.T) {
		left := processorTxn("ch_1", 100.00, date, "")
		right := booksTxn("bk_1", 80.00, date.AddDate(0, 0, 45), "")

		breakdown := scorer.Score(left, right)

		assert.Equal(t, 0, breakdown.Total)
		assert.Equal(t, domain.ConfidenceLow, breakdown.Level)
	})

	t.Run("configured threshold moves the high band", func(t *testing.T) {
		cfg := config.Default()
		cfg.AutoMatchThreshold = 65
		strict := usecase.NewScorer(cfg)

		left := processorTxn("ch_1", 100.00, date, "Acme Corp")
		right := booksTxn("bk_1", 98.00, date.AddDate(0, 0, 1), "Acme Corp")

		breakdown := strict.Score(left, right)

		assert.Equal(t, 65, breakdown.Total)
		assert.Equal(t, domain.ConfidenceHigh, breakdown.Level)
	})
}

func TestScorer_FactorOrdering(t *testing.T) {
	scorer := usecase.NewScorer(config.Default())
	date := day(2025, 1, 15)

	left := processorTxn("ch_1", 100.00, date, "Acme")
	left.Description = "Invoice 1001"
	right := booksTxn("bk_1", 100.00, date, "Acme")
	right.Description = "Invoice 1001"

	breakdown := scorer.Score(left, right)

	assert.Equal(t, []string{
		"Exact amount match",
		"Same day",
		"Customer name exact match",
		"Description exact match",
	}, breakdown.Factors)
}
