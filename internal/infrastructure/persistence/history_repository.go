package persistence

import (
	"context"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormHistoryRepository implements invoice.HistoryRepository using GORM.
// History tables are append-only: this repository only inserts and reads.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// InsertSnapshot appends one header history snapshot
func (r *GormHistoryRepository) InsertSnapshot(ctx context.Context, snapshot *invoice.HistorySnapshot) error {
	model := models.InvoiceHistoryModelFromDomain(snapshot)
	return r.db.WithContext(ctx).Create(model).Error
}

// InsertDetailSnapshot appends one detail history snapshot
func (r *GormHistoryRepository) InsertDetailSnapshot(ctx context.Context, snapshot *invoice.DetailHistorySnapshot) error {
	model := models.InvoiceDetailHistoryModelFromDomain(snapshot)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByInvoice returns all header snapshots for an invoice ordered by
// amendment index ascending
func (r *GormHistoryRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoice.HistorySnapshot, error) {
	var historyModels []models.InvoiceHistoryModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("amendment_index ASC, created_at ASC").
		Find(&historyModels).Error; err != nil {
		return nil, err
	}

	snapshots := make([]invoice.HistorySnapshot, len(historyModels))
	for i, model := range historyModels {
		snapshots[i] = *model.ToDomain()
	}
	return snapshots, nil
}

// Ensure GormHistoryRepository implements invoice.HistoryRepository
var _ invoice.HistoryRepository = (*GormHistoryRepository)(nil)
