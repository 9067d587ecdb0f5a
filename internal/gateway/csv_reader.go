package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"ledger-reconciler/internal/domain"
	"ledger-reconciler/internal/normalize"
)

// Export column layout, shared by both ledgers. The processor export
// carries one extra trailing column for the actual fee amount.
const (
	colExternalID = iota
	colType
	colAmount
	colDate
	colDescription
	colCustomerID
	colCustomerName
	colFeeAmount
)

// CSVTransactionRepository implements TransactionRepository for ledger
// export files. Amount and date cells are parsed leniently through the
// normalizer: an unparsable amount becomes 0.0 and an unparsable date
// stays absent rather than failing the whole import.
type CSVTransactionRepository struct{}

// NewCSVTransactionRepository creates a new repository instance.
func NewCSVTransactionRepository() *CSVTransactionRepository {
	return &CSVTransactionRepository{}
}

// GetProcessorTransactions reads and parses the processor export file.
func (r *CSVTransactionRepository) GetProcessorTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	return r.readExport(path, domain.SourceProcessor)
}

// GetBooksTransactions reads and parses the books export file.
func (r *CSVTransactionRepository) GetBooksTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	return r.readExport(path, domain.SourceBooks)
}

func (r *CSVTransactionRepository) readExport(path string, source domain.Source) ([]domain.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var transactions []domain.Transaction
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if len(record) <= colCustomerName {
			return nil, fmt.Errorf("record in %s has %d columns, want at least %d", path, len(record), colCustomerName+1)
		}

		tx := domain.Transaction{
			ExternalID:   record[colExternalID],
			Source:       source,
			Type:         domain.TransactionType(record[colType]),
			Amount:       normalize.Amount(record[colAmount]),
			Description:  record[colDescription],
			CustomerID:   record[colCustomerID],
			CustomerName: record[colCustomerName],
		}
		if date, ok := normalize.Date(record[colDate]); ok {
			tx.Date = date
		}
		if source == domain.SourceProcessor && len(record) > colFeeAmount && record[colFeeAmount] != "" {
			tx.Metadata = map[string]string{domain.MetadataFeeAmount: record[colFeeAmount]}
		}
		if tx.CustomerID == "" && tx.CustomerName == "" {
			tx.CustomerID, tx.CustomerName = normalize.CustomerInfo(tx.Metadata)
		}

		transactions = append(transactions, tx)
	}
	return transactions, nil
}
