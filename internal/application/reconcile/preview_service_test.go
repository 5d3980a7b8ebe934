package reconcile

import (
	"context"
	"testing"

	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPreviewService_ReportsAndStats(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	service := NewPreviewService(invoiceRepo)
	ctx := context.Background()

	matched := testInvoice(t, "INV-001")
	synced := testInvoice(t, "INV-002")
	require.NoError(t, synced.AssignNumber("B1", invoice.StatusApproved))

	invoiceRepo.On("FindByReference", ctx, "INV-001").Return([]invoice.Invoice{*matched}, nil)
	invoiceRepo.On("FindByReference", ctx, "INV-002").Return([]invoice.Invoice{*synced}, nil)
	invoiceRepo.On("FindByReference", ctx, "INV-404").Return([]invoice.Invoice{}, nil)

	// r4 never received a number from the authority and is not evaluated
	records := []reconcile.ExternalRecord{
		exportRecord("r1", "INV-404", "C1", "", reconcile.RecordStatusApproved),
		exportRecord("r2", "INV-002", "B1", "", reconcile.RecordStatusApproved),
		exportRecord("r3", "INV-001", "A1", "", reconcile.RecordStatusApproved),
		exportRecord("r4", "INV-001", "", "", reconcile.RecordStatusApproved),
	}

	result, err := service.Preview(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Stats.TotalRecords)
	assert.Equal(t, 3, result.Stats.RecordsWithNumber)
	assert.Equal(t, 3, result.Stats.DistinctNumbers)
	assert.Equal(t, 2, result.Stats.ExactMatches)
	assert.Equal(t, 0, result.Stats.PartialMatches)
	assert.Equal(t, 1, result.Stats.NoMatches)
	assert.Equal(t, 1, result.Stats.Updates)
	assert.Equal(t, 1, result.Stats.ManualReview)
	assert.Equal(t, 1, result.Stats.Ignored)

	// Actionable rows first: update, then manual, then ignore
	require.Len(t, result.Reports, 3)
	assert.Equal(t, reconcile.ActionUpdate, result.Reports[0].Action)
	assert.Equal(t, "A1", result.Reports[0].InvoiceNumber)
	require.NotNil(t, result.Reports[0].InvoiceID)
	assert.Equal(t, matched.ID, *result.Reports[0].InvoiceID)

	assert.Equal(t, reconcile.ActionManual, result.Reports[1].Action)
	assert.Equal(t, "C1", result.Reports[1].InvoiceNumber)
	assert.Nil(t, result.Reports[1].InvoiceID)

	assert.Equal(t, reconcile.ActionIgnore, result.Reports[2].Action)
	assert.Equal(t, "B1", result.Reports[2].InvoiceNumber)
}

func TestPreviewService_ChainPositions(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	service := NewPreviewService(invoiceRepo)
	ctx := context.Background()

	inv := testInvoice(t, "INV-001")
	invoiceRepo.On("FindByReference", ctx, "INV-001").Return([]invoice.Invoice{*inv}, nil)

	records := []reconcile.ExternalRecord{
		exportRecord("r1", "INV-001", "A1", "", reconcile.RecordStatusApproved),
		exportRecord("r2", "INV-001", "A2", "r1", reconcile.RecordStatusAmended),
	}

	result, err := service.Preview(ctx, records)
	require.NoError(t, err)
	require.Len(t, result.Reports, 2)

	byNumber := make(map[string]MatchReport)
	for _, r := range result.Reports {
		byNumber[r.InvoiceNumber] = r
	}
	assert.Equal(t, 0, byNumber["A1"].AmendmentIndex)
	assert.False(t, byNumber["A1"].ChainFinal)
	assert.Equal(t, 1, byNumber["A2"].AmendmentIndex)
	assert.True(t, byNumber["A2"].ChainFinal)

	// One candidate lookup per reference regardless of chain length
	invoiceRepo.AssertNumberOfCalls(t, "FindByReference", 1)
}

func TestPreviewService_Idempotent(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	service := NewPreviewService(invoiceRepo)
	ctx := context.Background()

	inv := testInvoice(t, "INV-001")
	invoiceRepo.On("FindByReference", ctx, "INV-001").Return([]invoice.Invoice{*inv}, nil)

	records := []reconcile.ExternalRecord{
		exportRecord("r1", "INV-001", "A1", "", reconcile.RecordStatusApproved),
	}

	first, err := service.Preview(ctx, records)
	require.NoError(t, err)
	second, err := service.Preview(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Preview never touches write paths
	invoiceRepo.AssertNotCalled(t, "UpdateAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPreviewService_CycleFails(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	service := NewPreviewService(invoiceRepo)

	records := []reconcile.ExternalRecord{
		exportRecord("r1", "INV-001", "A1", "r2", reconcile.RecordStatusApproved),
		exportRecord("r2", "INV-001", "A2", "r1", reconcile.RecordStatusAmended),
	}

	_, err := service.Preview(context.Background(), records)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrChainCycle)
}
