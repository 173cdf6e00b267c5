package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesOnCode(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeTransport, "fetch listing")

	assert.True(t, Is(err, ErrTransport))
	assert.False(t, Is(err, ErrStorage))
	assert.True(t, Is(err, io.ErrUnexpectedEOF), "cause should stay reachable")
	assert.Equal(t, "fetch listing: unexpected EOF", err.Error())
}

func TestError_IsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("refresh: %w", InvalidData("no photos"))

	assert.True(t, Is(err, ErrInvalidData))
	assert.Equal(t, CodeInvalidData, CodeOf(err))
}

func TestCodeOf_Uncoded(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(io.EOF))
}

func TestRecode(t *testing.T) {
	t.Run("wraps plain errors", func(t *testing.T) {
		err := Recode(io.EOF, CodeStorage, "commit")
		assert.Equal(t, CodeStorage, CodeOf(err))
	})

	t.Run("keeps an existing code", func(t *testing.T) {
		inner := NotFound("tag not found")
		err := Recode(fmt.Errorf("add tag: %w", inner), CodeStorage, "add tag")
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Recode(nil, CodeStorage, "noop"))
	})
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeTransport, http.StatusBadGateway},
		{CodeInvalidData, http.StatusBadGateway},
		{CodeDecode, http.StatusBadGateway},
		{CodeClosed, http.StatusServiceUnavailable},
		{CodeStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
