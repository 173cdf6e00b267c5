package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/photoramax/photorama/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{name: "success response", status: "200", input: map[string]string{"key": "value"}},
		{name: "created response", status: "201", input: map[string]string{"id": "123"}},
		{name: "no content response", status: "204", input: nil},
		{name: "plain error", status: "400", input: errors.New("invalid input")},
		{name: "coded error", status: "404", input: &APIError{Code: "NOT_FOUND", Message: "photo X not found"}},
		{name: "internal server error", status: "500", input: errors.New("internal error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
			assert.NotContains(t, envelope, "version")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"id": "A"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_PlainErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", &APIError{Message: "bad request"})
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "bad request", envelope.Error)
}

func TestEnvelopeTransformer_CodedErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "422", &APIError{
		Code:    "VALIDATION",
		Message: "validation failed",
		Details: []string{"name is required"},
	})
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")

	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed", envelope.Message)
	assert.Equal(t, []string{"name is required"}, envelope.Details)
}

func TestRegisterErrorHandler_MapsDomainErrors(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domainerrors.NotFoundf("photo %s not found", "X"), http.StatusNotFound, "NOT_FOUND"},
		{domainerrors.Validation("name is required"), http.StatusBadRequest, "VALIDATION"},
		{domainerrors.Transportf("unexpected status 500"), http.StatusBadGateway, "TRANSPORT"},
		{domainerrors.InvalidData("no photos"), http.StatusBadGateway, "INVALID_DATA"},
		{domainerrors.Wrap(errors.New("disk I/O error"), domainerrors.CodeStorage, "store photos"), http.StatusInternalServerError, "STORAGE"},
		{domainerrors.Closed("photo store is closed"), http.StatusServiceUnavailable, "CLOSED"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			se := huma.NewError(http.StatusInternalServerError, "unexpected error occurred", tt.err)

			apiErr, ok := se.(*APIError)
			require.True(t, ok)
			assert.Equal(t, tt.status, apiErr.GetStatus())
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestRegisterErrorHandler_UncodedErrors(t *testing.T) {
	RegisterErrorHandler()

	se := huma.NewError(http.StatusUnprocessableEntity, "validation failed", errors.New("expected string"))

	apiErr, ok := se.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.GetStatus())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Equal(t, []string{"expected string"}, apiErr.Details)
}
