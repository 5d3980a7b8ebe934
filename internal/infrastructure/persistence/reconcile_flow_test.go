package persistence

import (
	"context"
	"strings"
	"testing"
	"time"

	reconcileapp "github.com/fakturpajak/backend/internal/application/reconcile"
	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/infrastructure/coretax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full reconciliation flow against real repositories: parse a two-row export
// with an amendment chain, apply it, and verify the final invoice state and
// the history trail.
func TestReconcileFlow_AmendmentChainEndToEnd(t *testing.T) {
	db := setupInvoiceTestDB(t)
	ctx := context.Background()

	invoiceRepo := NewGormInvoiceRepository(db)
	historyRepo := NewGormHistoryRepository(db)

	inv, err := invoice.NewInvoice("INV-001", "111", "PT Maju Jaya",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, invoiceRepo.Save(ctx, inv))

	export := "RecordId,AggregateIdentifier,Reference,BuyerTIN,BuyerName,TaxInvoiceNumber,TaxInvoiceDate,TaxInvoiceStatus,AmendedRecordId,DocumentFormNumber,SellingPrice,OtherTaxBase,VAT\n" +
		"r1,agg-1,INV-001,111,PT Maju Jaya,A1,2026-01-15,APPROVED,,,200.00,0,22.00\n" +
		"r2,agg-1,INV-001,111,PT Maju Jaya,A2,2026-01-16,AMENDED,r1,,200.00,0,22.00\n"

	records, err := coretax.ParseExport(strings.NewReader(export), "export.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)

	applyService := reconcileapp.NewApplyService(NewGormTransactionScope(db))
	result, err := applyService.Apply(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 0, result.UpdatedInvoices)
	assert.Equal(t, 1, result.AmendedInvoices)
	assert.Equal(t, 2, result.HistoryRecordsCreated)
	assert.Equal(t, 0, result.FailedUpdates)
	assert.Empty(t, result.Errors)

	// The chain-final number lands on the invoice header
	updated, err := invoiceRepo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.AssignedInvoiceNumber)
	assert.Equal(t, invoice.StatusAmended, updated.Status)

	// One history row per chain position, original first
	history, err := historyRepo.FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, 0, history[0].AmendmentIndex)
	assert.Equal(t, "A1", history[0].InvoiceNumber)
	assert.Equal(t, "A1", history[0].OriginalInvoiceNumber)
	assert.Empty(t, history[0].PreviousInvoiceNumber)

	assert.Equal(t, 1, history[1].AmendmentIndex)
	assert.Equal(t, "A2", history[1].InvoiceNumber)
	assert.Equal(t, "A1", history[1].PreviousInvoiceNumber)
	assert.Equal(t, "A1", history[1].OriginalInvoiceNumber)
	assert.Equal(t, invoice.StatusAmended, history[1].Status)
}

// Re-running the same export must not duplicate updates or regress state
func TestReconcileFlow_RerunIsStable(t *testing.T) {
	db := setupInvoiceTestDB(t)
	ctx := context.Background()

	invoiceRepo := NewGormInvoiceRepository(db)
	historyRepo := NewGormHistoryRepository(db)

	inv, err := invoice.NewInvoice("INV-001", "111", "PT Maju Jaya",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, invoiceRepo.Save(ctx, inv))

	export := "RecordId,AggregateIdentifier,Reference,BuyerTIN,BuyerName,TaxInvoiceNumber,TaxInvoiceDate,TaxInvoiceStatus,AmendedRecordId,DocumentFormNumber,SellingPrice,OtherTaxBase,VAT\n" +
		"r1,agg-1,INV-001,111,PT Maju Jaya,A1,2026-01-15,APPROVED,,,200.00,0,22.00\n"

	records, err := coretax.ParseExport(strings.NewReader(export), "export.csv")
	require.NoError(t, err)

	applyService := reconcileapp.NewApplyService(NewGormTransactionScope(db))

	first, err := applyService.Apply(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UpdatedInvoices)

	second, err := applyService.Apply(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 0, second.UpdatedInvoices)
	assert.Equal(t, 1, second.SkippedRecords)
	assert.Equal(t, 0, second.HistoryRecordsCreated)

	updated, err := invoiceRepo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", updated.AssignedInvoiceNumber)

	// The second upload left the audit trail untouched
	history, err := historyRepo.FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
