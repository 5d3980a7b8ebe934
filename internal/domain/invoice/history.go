package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DetailChangeType classifies how a detail line changed between two chain
// positions. The Coretax export carries no line-item deltas, so with the
// current data source every snapshot is recorded as unchanged and the
// Previous* fields stay nil. A richer source could populate them.
type DetailChangeType string

const (
	DetailUnchanged DetailChangeType = "unchanged"
	DetailModified  DetailChangeType = "modified"
	DetailAdded     DetailChangeType = "added"
	DetailRemoved   DetailChangeType = "removed"
)

// HistorySnapshot is an append-only record of an invoice header as of one
// amendment-chain position. Snapshots are never updated or deleted: they are
// the audit trail of every state an invoice passed through at the authority.
type HistorySnapshot struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID

	Reference    string
	BuyerTaxID   string
	BuyerName    string
	InvoiceDate  time.Time
	SellingPrice decimal.Decimal
	OtherTaxBase decimal.Decimal
	VAT          decimal.Decimal

	InvoiceNumber         string
	PreviousInvoiceNumber string // number held immediately before this position, empty for the original
	OriginalInvoiceNumber string // root of the amendment chain
	Status                Status
	PreviousStatus        Status
	AmendmentIndex        int        // 0 = original, 1 = first amendment, ...
	AmendmentDate         *time.Time // nil when AmendmentIndex is 0

	RecordID           string // opaque Coretax record identifier
	AmendedRecordID    string
	DocumentFormNumber string

	Note      string // free-text provenance note
	RawRecord string // serialized copy of the external record
	CreatedAt time.Time
}

// DetailHistorySnapshot captures one detail line of the invoice alongside a
// header snapshot.
type DetailHistorySnapshot struct {
	ID           uuid.UUID
	HistoryID    uuid.UUID
	InvoiceID    uuid.UUID
	DetailLineID uuid.UUID

	ProductName string
	Unit        string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Discount    decimal.Decimal
	DPP         decimal.Decimal
	PPN         decimal.Decimal

	PreviousUnitPrice *decimal.Decimal
	PreviousQuantity  *decimal.Decimal
	PreviousDPP       *decimal.Decimal
	PreviousPPN       *decimal.Decimal
	ChangeType        DetailChangeType

	CreatedAt time.Time
}

// NewHistorySnapshot creates a header snapshot for the given invoice at one
// chain position. Chain-derived fields are filled in by the caller.
func NewHistorySnapshot(inv *Invoice) *HistorySnapshot {
	return &HistorySnapshot{
		ID:             uuid.New(),
		InvoiceID:      inv.ID,
		Reference:      inv.Reference,
		BuyerTaxID:     inv.BuyerTaxID,
		BuyerName:      inv.BuyerName,
		InvoiceDate:    inv.InvoiceDate,
		SellingPrice:   inv.SellingPrice,
		OtherTaxBase:   inv.OtherTaxBase,
		VAT:            inv.VAT,
		PreviousStatus: inv.Status,
		CreatedAt:      time.Now(),
	}
}

// NewDetailHistorySnapshot copies one current detail line under a header snapshot
func NewDetailHistorySnapshot(history *HistorySnapshot, line DetailLine) *DetailHistorySnapshot {
	return &DetailHistorySnapshot{
		ID:           uuid.New(),
		HistoryID:    history.ID,
		InvoiceID:    history.InvoiceID,
		DetailLineID: line.ID,
		ProductName:  line.ProductName,
		Unit:         line.Unit,
		UnitPrice:    line.UnitPrice,
		Quantity:     line.Quantity,
		Discount:     line.Discount,
		DPP:          line.DPP,
		PPN:          line.PPN,
		ChangeType:   DetailUnchanged,
		CreatedAt:    time.Now(),
	}
}
