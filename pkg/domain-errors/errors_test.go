package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	base := errors.New("row missing")
	err := fmt.Errorf("load case: %w", Wrap(Wrap(base, CodeNotFound, "case not found"), CodeInvalidInput, "bad reference"))

	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, CodeInternal, CodeOf(base))
	assert.NoError(t, Wrap(nil, CodeNotFound, "ignored"))
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeInvariantViolation: http.StatusUnprocessableEntity,
		CodeNotAcceptable:      http.StatusNotAcceptable,
		CodeUnavailable:        http.StatusServiceUnavailable,
		Code("unknown"):        http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, HTTPStatus(code), code)
	}
}
