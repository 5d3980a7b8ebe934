package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for invoice persistence
type Repository interface {
	// FindByID finds an invoice by ID, including its detail lines
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByReference finds all invoices sharing a business reference.
	// A reference may map to multiple invoices when one was re-created.
	FindByReference(ctx context.Context, reference string) ([]Invoice, error)

	// FindAll lists all invoices
	FindAll(ctx context.Context) ([]Invoice, error)

	// Save creates or updates an invoice together with its detail lines
	Save(ctx context.Context, inv *Invoice) error

	// UpdateAssignment writes the authority-issued invoice number and status.
	// It touches nothing else on the row.
	UpdateAssignment(ctx context.Context, id uuid.UUID, number string, status Status) error

	// GetDetailLines returns the current detail lines of an invoice
	GetDetailLines(ctx context.Context, invoiceID uuid.UUID) ([]DetailLine, error)

	// Delete removes an invoice and its detail lines
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryRepository defines the interface for the append-only audit trail.
// Snapshots are inserted, never updated or deleted.
type HistoryRepository interface {
	// InsertSnapshot appends one header history snapshot
	InsertSnapshot(ctx context.Context, snapshot *HistorySnapshot) error

	// InsertDetailSnapshot appends one detail history snapshot
	InsertDetailSnapshot(ctx context.Context, snapshot *DetailHistorySnapshot) error

	// FindByInvoice returns all header snapshots for an invoice ordered by
	// amendment index ascending
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]HistorySnapshot, error)
}
