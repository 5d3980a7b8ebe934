package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Reference string `json:"reference" binding:"required,min=1,max=100"`
	BuyerName string `json:"buyer_name" binding:"required,max=200"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(sampleRequest{})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-789")

	assert.False(t, resp.Success)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	// Field names come from JSON tags, not Go field names
	fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
	assert.Contains(t, fields, "reference")
	assert.Contains(t, fields, "buyer_name")
	assert.Equal(t, "This field is required", resp.Error.Details[0].Message)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-000")

	assert.False(t, resp.Success)
	assert.Empty(t, resp.Error.Details)
}
