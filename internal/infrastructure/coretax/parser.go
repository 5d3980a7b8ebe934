// Package coretax decodes bulk-export files downloaded from the Coretax tax
// platform into typed records for reconciliation. Columns are resolved by
// header name, so reordered exports keep parsing; field contents are carried
// verbatim and interpreted downstream.
package coretax

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fakturpajak/backend/internal/domain/reconcile"
	"github.com/xuri/excelize/v2"
)

// Recognized column headers of the Coretax bulk export
const (
	ColRecordID            = "RecordId"
	ColAggregateIdentifier = "AggregateIdentifier"
	ColReference           = "Reference"
	ColBuyerTIN            = "BuyerTIN"
	ColBuyerName           = "BuyerName"
	ColTaxInvoiceNumber    = "TaxInvoiceNumber"
	ColTaxInvoiceDate      = "TaxInvoiceDate"
	ColTaxInvoiceStatus    = "TaxInvoiceStatus"
	ColAmendedRecordID     = "AmendedRecordId"
	ColDocumentFormNumber  = "DocumentFormNumber"
	ColSellingPrice        = "SellingPrice"
	ColOtherTaxBase        = "OtherTaxBase"
	ColVAT                 = "VAT"
)

var (
	// ErrEmptyFile is returned when the uploaded file has no content
	ErrEmptyFile = errors.New("export file is empty")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("export file missing header row")

	// ErrInvalidFormat is returned when the file cannot be decoded as a
	// tabular document at all. This aborts the whole reconciliation run.
	ErrInvalidFormat = errors.New("file is not a valid Coretax export")
)

// ParseExport decodes an uploaded Coretax bulk export. XLSX workbooks are
// read from their first sheet; anything else is treated as CSV. Rows missing
// identifying columns are still returned: filtering on emptiness is the
// caller's responsibility.
func ParseExport(r io.Reader, filename string) ([]reconcile.ExternalRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	if isXLSX(filename, data) {
		return parseXLSX(data)
	}
	return parseCSV(data)
}

// isXLSX detects a workbook by extension or by the ZIP container magic
func isXLSX(filename string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return true
	}
	return len(data) >= 4 && bytes.Equal(data[:4], []byte{'P', 'K', 0x03, 0x04})
}

func parseXLSX(data []byte) ([]reconcile.ExternalRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeader
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(rows) == 0 {
		return nil, ErrMissingHeader
	}

	headerMap := buildHeaderMap(rows[0])
	records := make([]reconcile.ExternalRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if rowIsEmpty(row) {
			continue
		}
		records = append(records, recordFromRow(headerMap, row))
	}
	return records, nil
}

func parseCSV(data []byte) ([]reconcile.ExternalRecord, error) {
	// Strip UTF-8 BOM, common in files exported via Excel
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	headerMap := buildHeaderMap(header)
	var records []reconcile.ExternalRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if rowIsEmpty(row) {
			continue
		}
		records = append(records, recordFromRow(headerMap, row))
	}
	return records, nil
}

// buildHeaderMap maps trimmed header names to their column index
func buildHeaderMap(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[strings.TrimSpace(h)] = i
	}
	return m
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// recordFromRow maps one data row into an ExternalRecord by header name.
// Unknown or missing columns yield empty fields; no format validation here.
func recordFromRow(headerMap map[string]int, row []string) reconcile.ExternalRecord {
	get := func(col string) string {
		idx, ok := headerMap[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	return reconcile.ExternalRecord{
		RecordID:           get(ColRecordID),
		AggregateID:        get(ColAggregateIdentifier),
		Reference:          get(ColReference),
		BuyerTaxID:         get(ColBuyerTIN),
		BuyerName:          get(ColBuyerName),
		InvoiceNumber:      get(ColTaxInvoiceNumber),
		InvoiceDate:        get(ColTaxInvoiceDate),
		Status:             get(ColTaxInvoiceStatus),
		AmendedRecordID:    get(ColAmendedRecordID),
		DocumentFormNumber: get(ColDocumentFormNumber),
		SellingPrice:       get(ColSellingPrice),
		OtherTaxBase:       get(ColOtherTaxBase),
		VAT:                get(ColVAT),
	}
}
