package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToResponse_Taxonomy(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ErrBadIdentifier, http.StatusBadRequest},
		{ErrCredentialMissing, http.StatusUnauthorized},
		{ErrCredentialRejected, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrNoMatchingAttachment, http.StatusBadRequest},
		{ErrPayloadTooLarge, http.StatusBadRequest},
		{ErrUpstreamUnreachable, http.StatusInternalServerError},
		{ErrUpstreamBadResponse, http.StatusInternalServerError},
		{ErrUpstreamOther, http.StatusInternalServerError},
		{ErrDownloadFailed, http.StatusInternalServerError},
	}

	seen := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.False(t, seen[tt.err.Code], "duplicate code")
			seen[tt.err.Code] = true

			status, message := ToResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, message)

			wrapped := fmt.Errorf("pipeline: %w", tt.err.WithCause(errors.New("secret upstream body")))
			status, message = ToResponse(wrapped)
			assert.Equal(t, tt.status, status)
			assert.NotContains(t, message, "secret upstream body")
		})
	}
}

func TestToResponse_ForeignError(t *testing.T) {
	status, message := ToResponse(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", message)
	assert.Equal(t, "INTERNAL_ERROR", Kind(errors.New("boom")))
}

func TestToErrorResponse(t *testing.T) {
	body := ToErrorResponse(ErrNotFound.WithCause(errors.New("discord said 404")))
	assert.Equal(t, ErrorResponse{Error: "Discord message not found"}, body)

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Discord message not found"}`, string(raw))
}

func TestIsMatchesCopies(t *testing.T) {
	err := ErrBadIdentifier.WithMessage("Invalid channel ID format").WithDetail("field", "channel_id")

	assert.ErrorIs(t, err, ErrBadIdentifier)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "BAD_IDENTIFIER", Kind(err))
	assert.Equal(t, "Invalid identifier format", ErrBadIdentifier.Message)
	assert.Empty(t, ErrBadIdentifier.Details)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal))

	cause := errors.New("dial tcp: timeout")
	err := Wrap(cause, ErrUpstreamUnreachable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UPSTREAM_UNREACHABLE")
}

func TestRecoverPanic(t *testing.T) {
	assert.Nil(t, RecoverPanic(nil))

	err := RecoverPanic("nil map write")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "nil map write")

	err = RecoverPanic(errors.New("bad"))
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, true, err.(*Error).Details["panic"])
}
