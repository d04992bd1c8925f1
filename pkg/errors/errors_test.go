package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeJobNotFound, "job 4f21 not found")
	assert.Equal(t, "[JOB_001] job 4f21 not found", err.Error())

	withDetail := err.WithDetail("account=acct-1")
	assert.Equal(t, "[JOB_001] job 4f21 not found: account=acct-1", withDetail.Error())
	// The original is untouched.
	assert.Equal(t, "", err.Detail)
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "failed to load job")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeDatabaseError, GetCode(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "ignored"))
}

func TestWrapWithUnknownCodeKeepsOriginal(t *testing.T) {
	inner := New(ErrCodeInsufficientBalance, "balance 50, debit 600")
	outer := Wrap(inner, ErrCodeUnknown, "charge failed")

	assert.Equal(t, ErrCodeInsufficientBalance, outer.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeInsufficientCredits, "not enough tokens")
	wrapped := fmt.Errorf("admission: %w", Wrap(inner, ErrCodeInternal, "admit failed"))

	assert.True(t, IsCode(wrapped, ErrCodeInsufficientCredits))
	assert.True(t, IsCode(wrapped, ErrCodeInternal))
	assert.False(t, IsCode(wrapped, ErrCodeJobNotFound))
}

func TestGetCodeFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(New(ErrCodeValidation, "bad input")))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeInvalidSignature, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeJobNotFound, http.StatusNotFound},
		{ErrCodeLedgerKeyConflict, http.StatusConflict},
		{ErrCodeInsufficientCredits, http.StatusPaymentRequired},
		{ErrCodeInsufficientBalance, http.StatusPaymentRequired},
		{ErrCodeUploadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeConcurrencyLimit, http.StatusTooManyRequests},
		{ErrCodeJobTimeout, http.StatusGatewayTimeout},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeAllBranchesFailed, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.code), string(tc.code))
	}
}

func TestStackIsCaptured(t *testing.T) {
	err := New(ErrCodeInternal, "boom")
	assert.Contains(t, err.Stack, "errors_test.go")
}
