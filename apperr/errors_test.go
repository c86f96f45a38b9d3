package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	err := New("bad_team", "team lookup failed", ErrNotFound)
	assert.Equal(t, "team lookup failed: not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, "plain", New("x", "plain", nil).Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Invalid("league is required")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("fixture 9: %w", ErrNotFound)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(fmt.Errorf("stats: %w", ErrUpstream)))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "invalid_input", Code(Invalid("x")))
	assert.Equal(t, "upstream_error", Code(fmt.Errorf("a: %w", ErrUpstream)))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}
