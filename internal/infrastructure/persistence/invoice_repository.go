package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/fakturpajak/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID, including detail lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Preload("Details").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByReference finds all invoices sharing a business reference, ordered by
// creation time so re-created invoices come back in a stable order
func (r *GormInvoiceRepository) FindByReference(ctx context.Context, reference string) ([]invoice.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Where("reference = ?", reference).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindAll lists all invoices ordered by invoice date descending
func (r *GormInvoiceRepository) FindAll(ctx context.Context) ([]invoice.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Details").
		Order("invoice_date DESC, created_at DESC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoice.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice together with its detail lines
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(model).Error
}

// UpdateAssignment writes the authority-issued invoice number and status
// without touching any other column
func (r *GormInvoiceRepository) UpdateAssignment(ctx context.Context, id uuid.UUID, number string, status invoice.Status) error {
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"assigned_invoice_number": number,
			"status":                  status,
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetDetailLines returns the current detail lines of an invoice
func (r *GormInvoiceRepository) GetDetailLines(ctx context.Context, invoiceID uuid.UUID) ([]invoice.DetailLine, error) {
	var detailModels []models.InvoiceDetailModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Find(&detailModels).Error; err != nil {
		return nil, err
	}

	details := make([]invoice.DetailLine, len(detailModels))
	for i, model := range detailModels {
		details[i] = *model.ToDomain()
	}
	return details, nil
}

// Delete removes an invoice and its detail lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InvoiceDetailModel{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.InvoiceModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormInvoiceRepository implements invoice.Repository
var _ invoice.Repository = (*GormInvoiceRepository)(nil)
