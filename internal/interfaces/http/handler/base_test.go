package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fakturpajak/backend/internal/domain/shared"
	"github.com/fakturpajak/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBaseHandler_HandleError_DomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/boom", func(c *gin.Context) {
		h.HandleError(c, shared.NewDomainError("INVOICE_SYNCED", "Cannot delete a synced invoice"))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVOICE_SYNCED", errorCode(t, w.Body))
}

func TestBaseHandler_HandleError_WrappedSentinel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	engine := gin.New()
	engine.GET("/missing", func(c *gin.Context) {
		h.HandleError(c, shared.ErrNotFound)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, w.Body))
}

func TestBaseHandler_HandleError_UnknownError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	engine := gin.New()
	engine.GET("/opaque", func(c *gin.Context) {
		h.HandleError(c, assert.AnError)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/opaque", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ERR_INTERNAL", errorCode(t, w.Body))
}

func TestBaseHandler_ResponseEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	engine := gin.New()
	engine.GET("/ok", func(c *gin.Context) {
		h.Success(c, gin.H{"value": 42})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w.Body)
	assert.Equal(t, true, resp["success"])
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &BaseHandler{}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/fail", func(c *gin.Context) {
		h.NotFound(c, "Invoice not found")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-abc")
	engine.ServeHTTP(w, req)

	resp := decodeResponse(t, w.Body)
	errInfo := resp["error"].(map[string]any)
	assert.Equal(t, "req-abc", errInfo["request_id"])
}
