package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	invoiceapp "github.com/fakturpajak/backend/internal/application/invoice"
	"github.com/fakturpajak/backend/internal/domain/invoice"
	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/fakturpajak/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByReference(ctx context.Context, reference string) ([]invoice.Invoice, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context) ([]invoice.Invoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateAssignment(ctx context.Context, id uuid.UUID, number string, status invoice.Status) error {
	args := m.Called(ctx, id, number, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetDetailLines(ctx context.Context, invoiceID uuid.UUID) ([]invoice.DetailLine, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.DetailLine), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of invoice.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) InsertSnapshot(ctx context.Context, snapshot *invoice.HistorySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockHistoryRepository) InsertDetailSnapshot(ctx context.Context, snapshot *invoice.DetailHistorySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoice.HistorySnapshot, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.HistorySnapshot), args.Error(1)
}

func setupInvoiceRouter(invoiceRepo *MockInvoiceRepository, historyRepo *MockHistoryRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	service := invoiceapp.NewInvoiceService(invoiceRepo, historyRepo)
	h := NewInvoiceHandler(service)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.POST("/invoices", h.Create)
	api.GET("/invoices", h.List)
	api.GET("/invoices/:id", h.GetByID)
	api.PUT("/invoices/:id/buyer", h.UpdateBuyer)
	api.DELETE("/invoices/:id", h.Delete)
	api.GET("/invoices/:id/history", h.GetHistory)
	return engine
}

func decodeResponse(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	resp := decodeResponse(t, body)
	errInfo, ok := resp["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", body.String())
	return errInfo["code"].(string)
}

func TestInvoiceHandler_Create(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	engine := setupInvoiceRouter(invoiceRepo, new(MockHistoryRepository))

	invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	payload := `{
		"reference": "INV-001",
		"buyer_tax_id": "123456789012345",
		"buyer_name": "PT Maju Jaya",
		"invoice_date": "2026-01-15T00:00:00Z",
		"details": [
			{"product_name": "Widget", "unit": "pcs", "unit_price": "100", "quantity": "10"}
		]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w.Body)
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, "INV-001", data["reference"])
	assert.Equal(t, "DRAFT", data["status"])
}

func TestInvoiceHandler_Create_ValidationFailure(t *testing.T) {
	engine := setupInvoiceRouter(new(MockInvoiceRepository), new(MockHistoryRepository))

	// Missing required reference and buyer_name
	payload := `{"invoice_date": "2026-01-15T00:00:00Z"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_VALIDATION", errorCode(t, w.Body))
	assert.Contains(t, w.Body.String(), "reference")
}

func TestInvoiceHandler_GetByID_InvalidUUID(t *testing.T) {
	engine := setupInvoiceRouter(new(MockInvoiceRepository), new(MockHistoryRepository))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_BAD_REQUEST", errorCode(t, w.Body))
}

func TestInvoiceHandler_GetByID_NotFound(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	engine := setupInvoiceRouter(invoiceRepo, new(MockHistoryRepository))

	id := uuid.New()
	invoiceRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w.Body))
}

func TestInvoiceHandler_List_ByReference(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	engine := setupInvoiceRouter(invoiceRepo, new(MockHistoryRepository))

	inv, err := invoice.NewInvoice("INV-001", "123", "PT Maju Jaya",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	invoiceRepo.On("FindByReference", mock.Anything, "INV-001").Return([]invoice.Invoice{*inv}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices?reference=INV-001", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	invoiceRepo.AssertNotCalled(t, "FindAll", mock.Anything)

	resp := decodeResponse(t, w.Body)
	data := resp["data"].([]any)
	require.Len(t, data, 1)
}

func TestInvoiceHandler_Delete_SyncedInvoice(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	engine := setupInvoiceRouter(invoiceRepo, new(MockHistoryRepository))

	inv, err := invoice.NewInvoice("INV-001", "123", "PT Maju Jaya", time.Now())
	require.NoError(t, err)
	require.NoError(t, inv.AssignNumber("010.000-26.00000001", invoice.StatusApproved))

	invoiceRepo.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/invoices/"+inv.ID.String(), nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVOICE_SYNCED", errorCode(t, w.Body))
	invoiceRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestInvoiceHandler_GetHistory(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	historyRepo := new(MockHistoryRepository)
	engine := setupInvoiceRouter(invoiceRepo, historyRepo)

	inv, err := invoice.NewInvoice("INV-001", "123", "PT Maju Jaya", time.Now())
	require.NoError(t, err)

	snapshot := invoice.NewHistorySnapshot(inv)
	snapshot.InvoiceNumber = "010.000-26.00000001"
	snapshot.OriginalInvoiceNumber = "010.000-26.00000001"
	snapshot.Status = invoice.StatusApproved

	invoiceRepo.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	historyRepo.On("FindByInvoice", mock.Anything, inv.ID).Return([]invoice.HistorySnapshot{*snapshot}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+inv.ID.String()+"/history", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "010.000-26.00000001")
}
