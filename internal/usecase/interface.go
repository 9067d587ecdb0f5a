package usecase

import (
	"context"

	"ledger-reconciler/internal/domain"
)

// TransactionRepository defines the interface for fetching the two
// ledger record sets. The usecase layer depends on this interface, not
// on a concrete implementation.
//
//go:generate mockgen -destination=mocks/mock_repository.go -source=interface.go TransactionRepository
type TransactionRepository interface {
	GetProcessorTransactions(ctx context.Context, path string) ([]domain.Transaction, error)
	GetBooksTransactions(ctx context.Context, path string) ([]domain.Transaction, error)
}
