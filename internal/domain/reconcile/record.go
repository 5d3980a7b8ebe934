package reconcile

import (
	"strings"
	"time"

	"github.com/fakturpajak/backend/internal/domain/invoice"
)

// External status vocabulary used by the Coretax bulk export
const (
	RecordStatusApproved = "APPROVED"
	RecordStatusAmended  = "AMENDED"
	RecordStatusCanceled = "CANCELED"
)

// ExternalRecord is one row of the Coretax bulk export. It is rebuilt from
// the uploaded file on every reconciliation run and never persisted itself.
// All fields are carried as raw strings; interpretation (dates, decimals)
// happens downstream.
type ExternalRecord struct {
	RecordID           string `json:"record_id"`
	AggregateID        string `json:"aggregate_id"`
	Reference          string `json:"reference"`
	BuyerTaxID         string `json:"buyer_tax_id"`
	BuyerName          string `json:"buyer_name"`
	InvoiceNumber      string `json:"invoice_number"`
	InvoiceDate        string `json:"invoice_date"`
	Status             string `json:"status"`
	AmendedRecordID    string `json:"amended_record_id"`
	DocumentFormNumber string `json:"document_form_number"`
	SellingPrice       string `json:"selling_price"`
	OtherTaxBase       string `json:"other_tax_base"`
	VAT                string `json:"vat"`
}

// HasInvoiceNumber reports whether the tax authority has issued a number for
// this row. Rows without a number cannot participate in chain resolution or
// matching.
func (r ExternalRecord) HasInvoiceNumber() bool {
	return strings.TrimSpace(r.InvoiceNumber) != ""
}

// dateLayouts are the formats observed in Coretax exports, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Date parses the record's invoice date. Only the calendar date component is
// significant for matching.
func (r ExternalRecord) Date() (time.Time, bool) {
	return ParseDate(r.InvoiceDate)
}

// ParseDate parses an ISO-8601-like date string from the export
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SameDay compares two timestamps on the calendar date only
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MapStatus maps the external status vocabulary onto the local invoice status.
// Anything outside the known vocabulary falls back to DRAFT.
func MapStatus(external string) invoice.Status {
	switch strings.ToUpper(strings.TrimSpace(external)) {
	case RecordStatusApproved:
		return invoice.StatusApproved
	case RecordStatusAmended:
		return invoice.StatusAmended
	case RecordStatusCanceled, "CANCELLED":
		return invoice.StatusCancelled
	default:
		return invoice.StatusDraft
	}
}
