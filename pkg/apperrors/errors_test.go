package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := Wrap(errors.New("sql: no rows"), CodeNotFound, "profile not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "[NOT_FOUND] profile not found: sql: no rows", err.Error())
}

func TestCodeOfThroughWrapping(t *testing.T) {
	inner := Validation("bad waiver", FieldError{Field: "fullName", Message: "required"})
	outer := fmt.Errorf("submit: %w", inner)

	assert.Equal(t, CodeValidation, CodeOf(outer))
	assert.Equal(t, []FieldError{{Field: "fullName", Message: "required"}}, FieldsOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{ErrUnknownKey, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrWaiverRequired, http.StatusPreconditionRequired},
		{ErrLLMFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(WrapRetryable(errors.New("503"), CodeLLMFailure, "upstream")))
	assert.False(t, IsRetryable(New(CodeLLMParse, "bad json")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
