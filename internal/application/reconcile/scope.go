// Package reconcile orchestrates reconciliation runs: matching Coretax export
// records against local invoices, previewing the outcome, and applying
// assignment updates with their audit trail.
package reconcile

import (
	"context"

	"github.com/fakturpajak/backend/internal/domain/invoice"
)

// TransactionScope provides transactional access to the repositories a
// reconciliation run writes through. All repository operations executed
// within one scope commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. Both repositories share the same underlying transaction.
type TransactionalRepositories interface {
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() invoice.Repository
	// HistoryRepo returns the history repository scoped to the current transaction
	HistoryRepo() invoice.HistoryRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for testing.
type NoOpTransactionScope struct {
	invoiceRepo invoice.Repository
	historyRepo invoice.HistoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(invoiceRepo invoice.Repository, historyRepo invoice.HistoryRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo: invoiceRepo,
		historyRepo: historyRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository
func (s *NoOpTransactionScope) InvoiceRepo() invoice.Repository {
	return s.invoiceRepo
}

// HistoryRepo returns the history repository
func (s *NoOpTransactionScope) HistoryRepo() invoice.HistoryRepository {
	return s.historyRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
