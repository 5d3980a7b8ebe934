// Package invoice provides the application services for managing local tax
// invoices and reading their reconciliation history.
package invoice

import (
	"time"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Invoice DTOs
// =============================================================================

// CreateDetailRequest represents one line item in a create/update request
type CreateDetailRequest struct {
	ProductName string           `json:"product_name" binding:"required,min=1,max=200"`
	Unit        string           `json:"unit" binding:"max=50"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Discount    *decimal.Decimal `json:"discount"`
	PPN         *decimal.Decimal `json:"ppn"`
}

// CreateInvoiceRequest represents a request to create a new invoice
type CreateInvoiceRequest struct {
	Reference    string                `json:"reference" binding:"required,min=1,max=100"`
	BuyerTaxID   string                `json:"buyer_tax_id" binding:"max=50"`
	BuyerName    string                `json:"buyer_name" binding:"required,min=1,max=200"`
	BuyerAddress string                `json:"buyer_address" binding:"max=500"`
	InvoiceDate  time.Time             `json:"invoice_date" binding:"required"`
	Notes        string                `json:"notes"`
	Details      []CreateDetailRequest `json:"details" binding:"dive"`
}

// UpdateBuyerRequest represents a request to update buyer identification
type UpdateBuyerRequest struct {
	BuyerTaxID   string `json:"buyer_tax_id" binding:"max=50"`
	BuyerName    string `json:"buyer_name" binding:"required,min=1,max=200"`
	BuyerAddress string `json:"buyer_address" binding:"max=500"`
}

// DetailResponse represents one line item in API responses
type DetailResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
	DPP         decimal.Decimal `json:"dpp"`
	PPN         decimal.Decimal `json:"ppn"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Reference             string           `json:"reference"`
	BuyerTaxID            string           `json:"buyer_tax_id"`
	BuyerName             string           `json:"buyer_name"`
	BuyerAddress          string           `json:"buyer_address"`
	InvoiceDate           time.Time        `json:"invoice_date"`
	AssignedInvoiceNumber string           `json:"assigned_invoice_number"`
	Status                string           `json:"status"`
	SellingPrice          decimal.Decimal  `json:"selling_price"`
	OtherTaxBase          decimal.Decimal  `json:"other_tax_base"`
	VAT                   decimal.Decimal  `json:"vat"`
	Notes                 string           `json:"notes"`
	Details               []DetailResponse `json:"details"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// HistoryResponse represents one history snapshot in API responses
type HistoryResponse struct {
	ID                    uuid.UUID  `json:"id"`
	InvoiceID             uuid.UUID  `json:"invoice_id"`
	InvoiceNumber         string     `json:"invoice_number"`
	PreviousInvoiceNumber string     `json:"previous_invoice_number,omitempty"`
	OriginalInvoiceNumber string     `json:"original_invoice_number"`
	Status                string     `json:"status"`
	PreviousStatus        string     `json:"previous_status"`
	AmendmentIndex        int        `json:"amendment_index"`
	AmendmentDate         *time.Time `json:"amendment_date,omitempty"`
	RecordID              string     `json:"record_id"`
	DocumentFormNumber    string     `json:"document_form_number,omitempty"`
	Note                  string     `json:"note,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// toInvoiceResponse converts a domain invoice to its API representation
func toInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	details := make([]DetailResponse, len(inv.Details))
	for i, d := range inv.Details {
		details[i] = DetailResponse{
			ID:          d.ID,
			ProductName: d.ProductName,
			Unit:        d.Unit,
			UnitPrice:   d.UnitPrice,
			Quantity:    d.Quantity,
			Discount:    d.Discount,
			DPP:         d.DPP,
			PPN:         d.PPN,
		}
	}
	return &InvoiceResponse{
		ID:                    inv.ID,
		Reference:             inv.Reference,
		BuyerTaxID:            inv.BuyerTaxID,
		BuyerName:             inv.BuyerName,
		BuyerAddress:          inv.BuyerAddress,
		InvoiceDate:           inv.InvoiceDate,
		AssignedInvoiceNumber: inv.AssignedInvoiceNumber,
		Status:                inv.Status.String(),
		SellingPrice:          inv.SellingPrice,
		OtherTaxBase:          inv.OtherTaxBase,
		VAT:                   inv.VAT,
		Notes:                 inv.Notes,
		Details:               details,
		CreatedAt:             inv.CreatedAt,
		UpdatedAt:             inv.UpdatedAt,
	}
}

// toHistoryResponse converts a domain history snapshot to its API representation
func toHistoryResponse(s *invoice.HistorySnapshot) *HistoryResponse {
	return &HistoryResponse{
		ID:                    s.ID,
		InvoiceID:             s.InvoiceID,
		InvoiceNumber:         s.InvoiceNumber,
		PreviousInvoiceNumber: s.PreviousInvoiceNumber,
		OriginalInvoiceNumber: s.OriginalInvoiceNumber,
		Status:                s.Status.String(),
		PreviousStatus:        s.PreviousStatus.String(),
		AmendmentIndex:        s.AmendmentIndex,
		AmendmentDate:         s.AmendmentDate,
		RecordID:              s.RecordID,
		DocumentFormNumber:    s.DocumentFormNumber,
		Note:                  s.Note,
		CreatedAt:             s.CreatedAt,
	}
}
