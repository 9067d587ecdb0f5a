package gateway

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-reconciler/internal/domain"
)

func writeCSV(t *testing.T, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	writer := csv.NewWriter(file)
	require.NoError(t, writer.WriteAll(rows))
	writer.Flush()
	require.NoError(t, writer.Error())

	return path
}

func mustDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCSVTransactionRepository_GetProcessorTransactions(t *testing.T) {
	tests := []struct {
		name     string
		csvData  [][]string
		expected []domain.Transaction
		wantErr  bool
	}{
		{
			name: "valid processor export",
			csvData: [][]string{
				{"external_id", "type", "amount", "date", "description", "customer_id", "customer_name", "fee_amount"},
				{"ch_001", "charge", "150.00", "2025-01-15", "Subscription", "cust_1", "Acme Corp", "4.65"},
				{"re_001", "refund", "-50.00", "2025-01-16", "Refund", "cust_2", "Widgets Inc", ""},
			},
			expected: []domain.Transaction{
				{
					ExternalID:   "ch_001",
					Source:       domain.SourceProcessor,
					Type:         domain.TypeCharge,
					Amount:       150.00,
					Date:         mustDate(2025, 1, 15),
					Description:  "Subscription",
					CustomerID:   "cust_1",
					CustomerName: "Acme Corp",
					Metadata:     map[string]string{domain.MetadataFeeAmount: "4.65"},
				},
				{
					ExternalID:   "re_001",
					Source:       domain.SourceProcessor,
					Type:         domain.TypeRefund,
					Amount:       -50.00,
					Date:         mustDate(2025, 1, 16),
					Description:  "Refund",
					CustomerID:   "cust_2",
					CustomerName: "Widgets Inc",
				},
			},
		},
		{
			name: "lenient parsing of messy cells",
			csvData: [][]string{
				{"external_id", "type", "amount", "date", "description", "customer_id", "customer_name", "fee_amount"},
				{"ch_002", "charge", "$1,200.50", "01/15/2025", "Annual plan", "", "", ""},
				{"ch_003", "charge", "not a number", "also not a date", "", "", "", ""},
			},
			expected: []domain.Transaction{
				{
					ExternalID:  "ch_002",
					Source:      domain.SourceProcessor,
					Type:        domain.TypeCharge,
					Amount:      1200.50,
					Date:        mustDate(2025, 1, 15),
					Description: "Annual plan",
				},
				{
					ExternalID: "ch_003",
					Source:     domain.SourceProcessor,
					Type:       domain.TypeCharge,
					Amount:     0.0,
				},
			},
		},
		{
			name: "header only",
			csvData: [][]string{
				{"external_id", "type", "amount", "date", "description", "customer_id", "customer_name", "fee_amount"},
			},
			expected: nil,
		},
		{
			name: "too few columns",
			csvData: [][]string{
				{"external_id", "type", "amount", "date", "description", "customer_id", "customer_name"},
				{"ch_001", "charge", "150.00"},
			},
			wantErr: true,
		},
	}

	repo := NewCSVTransactionRepository()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, "processor.csv", tt.csvData)

			got, err := repo.GetProcessorTransactions(context.Background(), path)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCSVTransactionRepository_GetBooksTransactions(t *testing.T) {
	csvData := [][]string{
		{"external_id", "type", "amount", "date", "description", "customer_id", "customer_name"},
		{"bk_001", "payment", "150.00", "2025-01-15", "Invoice 1001", "qc_1", "Acme Corp"},
		{"cm_001", "credit_memo", "-50.00", "2025-01-17", "Credit", "qc_2", "Widgets Inc"},
	}
	path := writeCSV(t, "books.csv", csvData)

	repo := NewCSVTransactionRepository()
	got, err := repo.GetBooksTransactions(context.Background(), path)

	assert.NoError(t, err)
	assert.Equal(t, []domain.Transaction{
		{
			ExternalID:   "bk_001",
			Source:       domain.SourceBooks,
			Type:         domain.TypePayment,
			Amount:       150.00,
			Date:         mustDate(2025, 1, 15),
			Description:  "Invoice 1001",
			CustomerID:   "qc_1",
			CustomerName: "Acme Corp",
		},
		{
			ExternalID:   "cm_001",
			Source:       domain.SourceBooks,
			Type:         domain.TypeCreditMemo,
			Amount:       -50.00,
			Date:         mustDate(2025, 1, 17),
			Description:  "Credit",
			CustomerID:   "qc_2",
			CustomerName: "Widgets Inc",
		},
	}, got)
}

func TestCSVTransactionRepository_MissingFile(t *testing.T) {
	repo := NewCSVTransactionRepository()

	_, err := repo.GetProcessorTransactions(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)

	_, err = repo.GetBooksTransactions(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
