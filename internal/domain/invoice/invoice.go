package invoice

import (
	"strings"
	"time"

	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a tax invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"     // Not yet submitted to the tax authority
	StatusApproved  Status = "APPROVED"  // Approved by the tax authority
	StatusAmended   Status = "AMENDED"   // Superseded by a later amendment
	StatusCancelled Status = "CANCELLED" // Cancelled at the tax authority
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusAmended, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice can no longer change at the authority
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// DetailLine represents one line item of an invoice
type DetailLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	ProductName string
	Unit        string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Discount    decimal.Decimal
	DPP         decimal.Decimal // tax base for the line
	PPN         decimal.Decimal // VAT for the line
}

// NewDetailLine creates a new detail line for an invoice
func NewDetailLine(invoiceID uuid.UUID, productName, unit string, unitPrice, quantity decimal.Decimal) (*DetailLine, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, shared.NewDomainError("INVALID_DETAIL", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_DETAIL", "Quantity must be positive")
	}
	return &DetailLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductName: productName,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		Discount:    decimal.Zero,
		DPP:         unitPrice.Mul(quantity),
		PPN:         decimal.Zero,
	}, nil
}

// Invoice is the aggregate root for a local tax invoice (faktur pajak).
//
// Reference is the business correlation key used to match records from the
// Coretax bulk export. It is NOT unique per invoice: re-creating an invoice
// after a rejection legitimately produces multiple rows with one reference.
//
// AssignedInvoiceNumber is empty until the tax authority issues a number and
// a reconciliation run writes it back. Once set, it is only overwritten by a
// run that supersedes it via a later amendment-chain position.
type Invoice struct {
	shared.BaseEntity
	Reference             string
	BuyerTaxID            string
	BuyerName             string
	BuyerAddress          string
	InvoiceDate           time.Time
	AssignedInvoiceNumber string
	Status                Status
	SellingPrice          decimal.Decimal
	OtherTaxBase          decimal.Decimal
	VAT                   decimal.Decimal
	Notes                 string
	Details               []DetailLine
}

// NewInvoice creates a new draft invoice
func NewInvoice(reference, buyerTaxID, buyerName string, invoiceDate time.Time) (*Invoice, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Invoice reference cannot be empty")
	}
	if strings.TrimSpace(buyerName) == "" {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer name cannot be empty")
	}
	return &Invoice{
		BaseEntity:   shared.NewBaseEntity(),
		Reference:    strings.TrimSpace(reference),
		BuyerTaxID:   strings.TrimSpace(buyerTaxID),
		BuyerName:    strings.TrimSpace(buyerName),
		InvoiceDate:  invoiceDate,
		Status:       StatusDraft,
		SellingPrice: decimal.Zero,
		OtherTaxBase: decimal.Zero,
		VAT:          decimal.Zero,
		Details:      make([]DetailLine, 0),
	}, nil
}

// AddDetail appends a detail line and recalculates the header amounts
func (i *Invoice) AddDetail(line DetailLine) {
	line.InvoiceID = i.ID
	i.Details = append(i.Details, line)
	i.recalculate()
	i.Touch()
}

// recalculate recomputes header amounts from detail lines
func (i *Invoice) recalculate() {
	selling := decimal.Zero
	dpp := decimal.Zero
	ppn := decimal.Zero
	for _, d := range i.Details {
		selling = selling.Add(d.UnitPrice.Mul(d.Quantity).Sub(d.Discount))
		dpp = dpp.Add(d.DPP)
		ppn = ppn.Add(d.PPN)
	}
	i.SellingPrice = selling
	i.OtherTaxBase = dpp
	i.VAT = ppn
}

// UpdateBuyer changes the buyer identification fields
func (i *Invoice) UpdateBuyer(taxID, name, address string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_BUYER", "Buyer name cannot be empty")
	}
	i.BuyerTaxID = strings.TrimSpace(taxID)
	i.BuyerName = strings.TrimSpace(name)
	i.BuyerAddress = strings.TrimSpace(address)
	i.Touch()
	return nil
}

// AssignNumber records the invoice number issued by the tax authority together
// with the status reported for it
func (i *Invoice) AssignNumber(number string, status Status) error {
	if strings.TrimSpace(number) == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Assigned invoice number cannot be empty")
	}
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown invoice status: "+status.String())
	}
	i.AssignedInvoiceNumber = strings.TrimSpace(number)
	i.Status = status
	i.Touch()
	return nil
}

// IsSyncedWith reports whether the invoice already carries the given
// authority-issued number
func (i *Invoice) IsSyncedWith(number string) bool {
	return number != "" && i.AssignedInvoiceNumber == number
}

// HasAssignedNumber reports whether the authority has issued a number
func (i *Invoice) HasAssignedNumber() bool {
	return i.AssignedInvoiceNumber != ""
}
