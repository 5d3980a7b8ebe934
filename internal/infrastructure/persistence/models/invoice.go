package models

import (
	"time"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
// Reference is indexed but deliberately not unique: re-created invoices
// legitimately share one reference.
type InvoiceModel struct {
	BaseModel
	Reference             string          `gorm:"type:varchar(100);not null;index"`
	BuyerTaxID            string          `gorm:"type:varchar(50);index"`
	BuyerName             string          `gorm:"type:varchar(200);not null"`
	BuyerAddress          string          `gorm:"type:text"`
	InvoiceDate           time.Time       `gorm:"not null;index"`
	AssignedInvoiceNumber string          `gorm:"type:varchar(50);index"`
	Status                invoice.Status  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SellingPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OtherTaxBase          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VAT                   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes                 string          `gorm:"type:text"`

	Details []InvoiceDetailModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	details := make([]invoice.DetailLine, len(m.Details))
	for i, d := range m.Details {
		details[i] = *d.ToDomain()
	}
	return &invoice.Invoice{
		BaseEntity:            m.BaseModel.ToDomain(),
		Reference:             m.Reference,
		BuyerTaxID:            m.BuyerTaxID,
		BuyerName:             m.BuyerName,
		BuyerAddress:          m.BuyerAddress,
		InvoiceDate:           m.InvoiceDate,
		AssignedInvoiceNumber: m.AssignedInvoiceNumber,
		Status:                m.Status,
		SellingPrice:          m.SellingPrice,
		OtherTaxBase:          m.OtherTaxBase,
		VAT:                   m.VAT,
		Notes:                 m.Notes,
		Details:               details,
	}
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainBaseEntity(inv.BaseEntity)
	m.Reference = inv.Reference
	m.BuyerTaxID = inv.BuyerTaxID
	m.BuyerName = inv.BuyerName
	m.BuyerAddress = inv.BuyerAddress
	m.InvoiceDate = inv.InvoiceDate
	m.AssignedInvoiceNumber = inv.AssignedInvoiceNumber
	m.Status = inv.Status
	m.SellingPrice = inv.SellingPrice
	m.OtherTaxBase = inv.OtherTaxBase
	m.VAT = inv.VAT
	m.Notes = inv.Notes
	m.Details = make([]InvoiceDetailModel, len(inv.Details))
	for i, d := range inv.Details {
		m.Details[i] = *InvoiceDetailModelFromDomain(&d)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceDetailModel is the persistence model for one invoice line item
type InvoiceDetailModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Unit        string          `gorm:"type:varchar(50)"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DPP         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PPN         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceDetailModel) TableName() string {
	return "invoice_details"
}

// ToDomain converts the persistence model to a domain DetailLine
func (m *InvoiceDetailModel) ToDomain() *invoice.DetailLine {
	return &invoice.DetailLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		ProductName: m.ProductName,
		Unit:        m.Unit,
		UnitPrice:   m.UnitPrice,
		Quantity:    m.Quantity,
		Discount:    m.Discount,
		DPP:         m.DPP,
		PPN:         m.PPN,
	}
}

// InvoiceDetailModelFromDomain creates a persistence model from a domain DetailLine
func InvoiceDetailModelFromDomain(d *invoice.DetailLine) *InvoiceDetailModel {
	return &InvoiceDetailModel{
		ID:          d.ID,
		InvoiceID:   d.InvoiceID,
		ProductName: d.ProductName,
		Unit:        d.Unit,
		UnitPrice:   d.UnitPrice,
		Quantity:    d.Quantity,
		Discount:    d.Discount,
		DPP:         d.DPP,
		PPN:         d.PPN,
	}
}

// InvoiceHistoryModel is the append-only persistence model for header history
// snapshots. Rows are inserted during reconciliation and never updated.
type InvoiceHistoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	Reference    string          `gorm:"type:varchar(100);not null;index"`
	BuyerTaxID   string          `gorm:"type:varchar(50)"`
	BuyerName    string          `gorm:"type:varchar(200)"`
	InvoiceDate  time.Time       `gorm:"not null"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OtherTaxBase decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	VAT          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	InvoiceNumber         string         `gorm:"type:varchar(50);not null;index"`
	PreviousInvoiceNumber string         `gorm:"type:varchar(50)"`
	OriginalInvoiceNumber string         `gorm:"type:varchar(50);index"`
	Status                invoice.Status `gorm:"type:varchar(20);not null"`
	PreviousStatus        invoice.Status `gorm:"type:varchar(20)"`
	AmendmentIndex        int            `gorm:"not null;default:0"`
	AmendmentDate         *time.Time

	RecordID           string `gorm:"type:varchar(100);index"`
	AmendedRecordID    string `gorm:"type:varchar(100)"`
	DocumentFormNumber string `gorm:"type:varchar(100)"`

	Note      string    `gorm:"type:text"`
	RawRecord string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceHistoryModel) TableName() string {
	return "invoice_histories"
}

// ToDomain converts the persistence model to a domain HistorySnapshot
func (m *InvoiceHistoryModel) ToDomain() *invoice.HistorySnapshot {
	return &invoice.HistorySnapshot{
		ID:                    m.ID,
		InvoiceID:             m.InvoiceID,
		Reference:             m.Reference,
		BuyerTaxID:            m.BuyerTaxID,
		BuyerName:             m.BuyerName,
		InvoiceDate:           m.InvoiceDate,
		SellingPrice:          m.SellingPrice,
		OtherTaxBase:          m.OtherTaxBase,
		VAT:                   m.VAT,
		InvoiceNumber:         m.InvoiceNumber,
		PreviousInvoiceNumber: m.PreviousInvoiceNumber,
		OriginalInvoiceNumber: m.OriginalInvoiceNumber,
		Status:                m.Status,
		PreviousStatus:        m.PreviousStatus,
		AmendmentIndex:        m.AmendmentIndex,
		AmendmentDate:         m.AmendmentDate,
		RecordID:              m.RecordID,
		AmendedRecordID:       m.AmendedRecordID,
		DocumentFormNumber:    m.DocumentFormNumber,
		Note:                  m.Note,
		RawRecord:             m.RawRecord,
		CreatedAt:             m.CreatedAt,
	}
}

// InvoiceHistoryModelFromDomain creates a persistence model from a domain HistorySnapshot
func InvoiceHistoryModelFromDomain(s *invoice.HistorySnapshot) *InvoiceHistoryModel {
	return &InvoiceHistoryModel{
		ID:                    s.ID,
		InvoiceID:             s.InvoiceID,
		Reference:             s.Reference,
		BuyerTaxID:            s.BuyerTaxID,
		BuyerName:             s.BuyerName,
		InvoiceDate:           s.InvoiceDate,
		SellingPrice:          s.SellingPrice,
		OtherTaxBase:          s.OtherTaxBase,
		VAT:                   s.VAT,
		InvoiceNumber:         s.InvoiceNumber,
		PreviousInvoiceNumber: s.PreviousInvoiceNumber,
		OriginalInvoiceNumber: s.OriginalInvoiceNumber,
		Status:                s.Status,
		PreviousStatus:        s.PreviousStatus,
		AmendmentIndex:        s.AmendmentIndex,
		AmendmentDate:         s.AmendmentDate,
		RecordID:              s.RecordID,
		AmendedRecordID:       s.AmendedRecordID,
		DocumentFormNumber:    s.DocumentFormNumber,
		Note:                  s.Note,
		RawRecord:             s.RawRecord,
		CreatedAt:             s.CreatedAt,
	}
}

// InvoiceDetailHistoryModel is the append-only persistence model for detail
// line snapshots taken alongside a header snapshot
type InvoiceDetailHistoryModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	HistoryID    uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceID    uuid.UUID `gorm:"type:uuid;not null;index"`
	DetailLineID uuid.UUID `gorm:"type:uuid;not null"`

	ProductName string          `gorm:"type:varchar(200);not null"`
	Unit        string          `gorm:"type:varchar(50)"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DPP         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PPN         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	PreviousUnitPrice *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PreviousQuantity  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PreviousDPP       *decimal.Decimal         `gorm:"type:decimal(18,4)"`
	PreviousPPN       *decimal.Decimal         `gorm:"type:decimal(18,4)"`
	ChangeType        invoice.DetailChangeType `gorm:"type:varchar(20);not null;default:'unchanged'"`

	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceDetailHistoryModel) TableName() string {
	return "invoice_detail_histories"
}

// ToDomain converts the persistence model to a domain DetailHistorySnapshot
func (m *InvoiceDetailHistoryModel) ToDomain() *invoice.DetailHistorySnapshot {
	return &invoice.DetailHistorySnapshot{
		ID:                m.ID,
		HistoryID:         m.HistoryID,
		InvoiceID:         m.InvoiceID,
		DetailLineID:      m.DetailLineID,
		ProductName:       m.ProductName,
		Unit:              m.Unit,
		UnitPrice:         m.UnitPrice,
		Quantity:          m.Quantity,
		Discount:          m.Discount,
		DPP:               m.DPP,
		PPN:               m.PPN,
		PreviousUnitPrice: m.PreviousUnitPrice,
		PreviousQuantity:  m.PreviousQuantity,
		PreviousDPP:       m.PreviousDPP,
		PreviousPPN:       m.PreviousPPN,
		ChangeType:        m.ChangeType,
		CreatedAt:         m.CreatedAt,
	}
}

// InvoiceDetailHistoryModelFromDomain creates a persistence model from a
// domain DetailHistorySnapshot
func InvoiceDetailHistoryModelFromDomain(s *invoice.DetailHistorySnapshot) *InvoiceDetailHistoryModel {
	return &InvoiceDetailHistoryModel{
		ID:                s.ID,
		HistoryID:         s.HistoryID,
		InvoiceID:         s.InvoiceID,
		DetailLineID:      s.DetailLineID,
		ProductName:       s.ProductName,
		Unit:              s.Unit,
		UnitPrice:         s.UnitPrice,
		Quantity:          s.Quantity,
		Discount:          s.Discount,
		DPP:               s.DPP,
		PPN:               s.PPN,
		PreviousUnitPrice: s.PreviousUnitPrice,
		PreviousQuantity:  s.PreviousQuantity,
		PreviousDPP:       s.PreviousDPP,
		PreviousPPN:       s.PreviousPPN,
		ChangeType:        s.ChangeType,
		CreatedAt:         s.CreatedAt,
	}
}

// AllModels lists every persistence model for auto-migration
func AllModels() []any {
	return []any{
		&InvoiceModel{},
		&InvoiceDetailModel{},
		&InvoiceHistoryModel{},
		&InvoiceDetailHistoryModel{},
	}
}
