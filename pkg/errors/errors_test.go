package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsCodeAndMatchesSentinel(t *testing.T) {
	err := Clone(ErrValidation, "enter at least one allowed term")

	require.Equal(t, "enter at least one allowed term", err.Message)
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.True(t, IsValidation(err))
	assert.False(t, IsUpstream(err))
	assert.Equal(t, "validation failed", ErrValidation.Message)
}

func TestFieldAttachesFieldName(t *testing.T) {
	err := Field("max_terms", "enter a whole number for maximum terms")

	assert.Equal(t, "max_terms", err.Field)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, IsValidation(err))
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	wrapped := FromError(fmt.Errorf("boom"))

	assert.Equal(t, ErrInternal.Code, wrapped.Code)
	assert.Equal(t, http.StatusInternalServerError, wrapped.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapUnwrapsToCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Wrap(cause, ErrUpstream.Code, ErrUpstream.Status, "degree planner unreachable")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsUpstream(fmt.Errorf("attempt: %w", err)))
	assert.Contains(t, err.Error(), "dial tcp")
}
