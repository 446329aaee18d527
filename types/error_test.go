package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	e := NewError(ErrSynthesisFailed, "tts request failed").WithProvider("elevenlabs")
	assert.Equal(t, "[SYNTHESIS_FAILED] tts request failed", e.Error())

	cause := errors.New("connection refused")
	e = e.WithCause(cause)
	assert.Contains(t, e.Error(), "connection refused")
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestError_Wrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial timeout")
	e := NewError(ErrUpstreamError, "groq unreachable").WithCause(cause).WithRetryable(true)

	wrapped := fmt.Errorf("turn failed: %w", e)

	var typed *Error
	require.True(t, errors.As(wrapped, &typed))
	assert.Equal(t, ErrUpstreamError, typed.Code)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRetryable(NewError(ErrRateLimited, "slow down").WithRetryable(true)))
	assert.False(t, IsRetryable(NewError(ErrUnauthorized, "bad key")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestGetErrorCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrUnknownProvider, GetErrorCode(NewError(ErrUnknownProvider, "nope")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain error")))
}
