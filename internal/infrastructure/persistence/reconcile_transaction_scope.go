package persistence

import (
	"context"

	reconcileapp "github.com/fakturpajak/backend/internal/application/reconcile"
	"github.com/fakturpajak/backend/internal/domain/invoice"
	"gorm.io/gorm"
)

// GormTransactionScope implements the reconciliation TransactionScope using
// GORM transactions. One reference group's writes run atomically.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction. An error
// from the function rolls back every write made through the scoped
// repositories.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos reconcileapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories exposes repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) InvoiceRepo() invoice.Repository {
	return NewGormInvoiceRepository(r.tx)
}

// HistoryRepo returns the history repository scoped to the current transaction
func (r *gormTransactionalRepositories) HistoryRepo() invoice.HistoryRepository {
	return NewGormHistoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ reconcileapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ reconcileapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
