package handler

import (
	"errors"
	"fmt"

	reconcileapp "github.com/fakturpajak/backend/internal/application/reconcile"
	"github.com/fakturpajak/backend/internal/domain/reconcile"
	"github.com/fakturpajak/backend/internal/infrastructure/coretax"
	"github.com/fakturpajak/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReconcileHandler handles Coretax export reconciliation endpoints
type ReconcileHandler struct {
	BaseHandler
	previewService *reconcileapp.PreviewService
	applyService   *reconcileapp.ApplyService
	maxFileSize    int64
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(previewService *reconcileapp.PreviewService, applyService *reconcileapp.ApplyService, maxFileSize int64) *ReconcileHandler {
	return &ReconcileHandler{
		previewService: previewService,
		applyService:   applyService,
		maxFileSize:    maxFileSize,
	}
}

// Preview godoc
// @ID           previewReconcile
// @Summary      Preview a Coretax export
// @Description  Parse an uploaded Coretax export (XLSX or CSV) and report how each record would reconcile against local invoices, without writing anything.
// @Tags         reconcile
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Coretax export file"
// @Success      200 {object} APIResponse[reconcileapp.PreviewResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /reconcile/preview [post]
func (h *ReconcileHandler) Preview(c *gin.Context) {
	records, ok := h.parseUpload(c)
	if !ok {
		return
	}

	result, err := h.previewService.Preview(c.Request.Context(), records)
	if err != nil {
		h.handleReconcileError(c, err)
		return
	}

	h.Success(c, result)
}

// Apply godoc
// @ID           applyReconcile
// @Summary      Apply a Coretax export
// @Description  Parse an uploaded Coretax export and write authority-issued invoice numbers and history snapshots back to matching local invoices. Each business reference is applied in its own transaction.
// @Tags         reconcile
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "Coretax export file"
// @Success      200 {object} APIResponse[reconcileapp.ApplyResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /reconcile/apply [post]
func (h *ReconcileHandler) Apply(c *gin.Context) {
	records, ok := h.parseUpload(c)
	if !ok {
		return
	}

	result, err := h.applyService.Apply(c.Request.Context(), records)
	if err != nil {
		h.handleReconcileError(c, err)
		return
	}

	h.Success(c, result)
}

// parseUpload reads the multipart upload and parses it into external records.
// On failure it writes the error response and returns ok=false.
func (h *ReconcileHandler) parseUpload(c *gin.Context) ([]reconcile.ExternalRecord, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Export file is required in the 'file' form field")
		return nil, false
	}

	if fileHeader.Size > h.maxFileSize {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeFileTooLarge), dto.ErrCodeFileTooLarge,
			fmt.Sprintf("Export file exceeds the %d byte limit", h.maxFileSize))
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return nil, false
	}
	defer func() {
		_ = file.Close()
	}()

	records, err := coretax.ParseExport(file, fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, coretax.ErrEmptyFile),
			errors.Is(err, coretax.ErrMissingHeader),
			errors.Is(err, coretax.ErrInvalidFormat):
			h.ErrorWithCode(c, dto.ErrCodeImportFormat, err.Error())
		default:
			h.InternalError(c, "Failed to parse export file")
		}
		return nil, false
	}

	return records, true
}

// handleReconcileError maps reconciliation errors onto HTTP responses
func (h *ReconcileHandler) handleReconcileError(c *gin.Context, err error) {
	if errors.Is(err, reconcile.ErrChainCycle) {
		h.ErrorWithCode(c, dto.ErrCodeChainCycle, err.Error())
		return
	}
	h.HandleError(c, err)
}
