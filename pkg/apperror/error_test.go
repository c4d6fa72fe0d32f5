package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without internal error",
			err:  New(http.StatusNotFound, "not_found", "Entity not found"),
			want: "not_found: Entity not found",
		},
		{
			name: "with internal error",
			err:  New(http.StatusInternalServerError, "database_error", "query failed").WithInternal(errors.New("connection refused")),
			want: "database_error: query failed (connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("sql: no rows")
	err := ErrDatabase.WithInternal(inner)

	assert.Equal(t, inner, err.Unwrap())
	assert.True(t, errors.Is(err, inner))
}

func TestError_WithMessage_DoesNotMutateOriginal(t *testing.T) {
	custom := ErrNotFound.WithMessage("Entity type 'person' not found")

	assert.Equal(t, "Entity type 'person' not found", custom.Message)
	assert.Equal(t, "Resource not found", ErrNotFound.Message)
	assert.Equal(t, ErrNotFound.Code, custom.Code)
	assert.Equal(t, ErrNotFound.HTTPStatus, custom.HTTPStatus)
}

func TestError_WithDetails_DoesNotMutateOriginal(t *testing.T) {
	details := map[string]any{"fields": map[string]string{"name": "Required property missing"}}
	custom := ErrValidation.WithDetails(details)

	assert.Equal(t, details, custom.Details)
	assert.Nil(t, ErrValidation.Details)
}

func TestNewValidation(t *testing.T) {
	fields := map[string]string{
		"name":  "Required property missing",
		"email": "Unknown property: not defined in type 'person'",
	}
	err := NewValidation(fields)

	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "validation_error", err.Code)
	assert.Equal(t, fields, err.Fields())
}

func TestNewEndpointMismatch(t *testing.T) {
	fields := map[string]string{
		"fromEntityId": "Source entity type mismatch: expected 'person', got 'company'",
	}
	err := NewEndpointMismatch(fields)

	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "endpoint_mismatch", err.Code)
	assert.Equal(t, fields, err.Fields())
}

func TestFields_NilWhenAbsent(t *testing.T) {
	assert.Nil(t, ErrNotFound.Fields())
	assert.Nil(t, ErrBadRequest.WithDetails(map[string]any{"hint": "x"}).Fields())
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("Entity", "abc-123")

	require.NotNil(t, err)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Equal(t, "not_found", err.Code)
	assert.Equal(t, "Entity 'abc-123' not found", err.Message)
}

func TestTaxonomyStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrNotFound.HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, ErrValidation.HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, ErrEndpointMismatch.HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, ErrFeatureDisabled.HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, ErrProviderUnavailable.HTTPStatus)
}
