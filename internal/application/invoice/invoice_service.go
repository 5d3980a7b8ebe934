package invoice

import (
	"context"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceService handles invoice-related business operations
type InvoiceService struct {
	invoiceRepo invoice.Repository
	historyRepo invoice.HistoryRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoice.Repository, historyRepo invoice.HistoryRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		historyRepo: historyRepo,
	}
}

// Create creates a new draft invoice with its detail lines
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := invoice.NewInvoice(req.Reference, req.BuyerTaxID, req.BuyerName, req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	inv.BuyerAddress = req.BuyerAddress
	inv.Notes = req.Notes

	for _, d := range req.Details {
		line, err := invoice.NewDetailLine(inv.ID, d.ProductName, d.Unit, d.UnitPrice, d.Quantity)
		if err != nil {
			return nil, err
		}
		if d.Discount != nil {
			line.Discount = *d.Discount
		}
		if d.PPN != nil {
			line.PPN = *d.PPN
		} else {
			// Default Indonesian VAT rate applied to the line tax base
			line.PPN = line.DPP.Mul(decimal.RequireFromString("0.11"))
		}
		inv.AddDetail(*line)
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// GetByID returns one invoice with its detail lines
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// List returns all invoices
func (s *InvoiceService) List(ctx context.Context) ([]InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, nil
}

// ListByReference returns all invoices sharing a business reference
func (s *InvoiceService) ListByReference(ctx context.Context, reference string) ([]InvoiceResponse, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	invoices, err := s.invoiceRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = *toInvoiceResponse(&invoices[i])
	}
	return responses, nil
}

// UpdateBuyer changes the buyer identification of an invoice
func (s *InvoiceService) UpdateBuyer(ctx context.Context, id uuid.UUID, req UpdateBuyerRequest) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.UpdateBuyer(req.BuyerTaxID, req.BuyerName, req.BuyerAddress); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

// Delete removes an invoice. Invoices that already carry an authority-issued
// number are part of the audit trail and cannot be deleted.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.HasAssignedNumber() {
		return shared.NewDomainError("INVOICE_SYNCED", "Cannot delete an invoice with an assigned tax invoice number")
	}
	return s.invoiceRepo.Delete(ctx, id)
}

// GetHistory returns the amendment history of an invoice, original first
func (s *InvoiceService) GetHistory(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error) {
	if _, err := s.invoiceRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	snapshots, err := s.historyRepo.FindByInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	responses := make([]HistoryResponse, len(snapshots))
	for i := range snapshots {
		responses[i] = *toHistoryResponse(&snapshots[i])
	}
	return responses, nil
}
