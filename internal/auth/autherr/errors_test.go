package autherr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := Newf(CodeInvalidCredentials, "bad password")
	require.True(t, errors.Is(err, New(CodeInvalidCredentials)))
	require.False(t, errors.Is(err, New(CodeNetwork)))
}

func TestCodeOf_WrappedError(t *testing.T) {
	inner := Wrap(CodeRateLimited, errors.New("TOO_MANY_ATTEMPTS_TRY_LATER"))
	outer := fmt.Errorf("sign in: %w", inner)

	require.Equal(t, CodeRateLimited, CodeOf(outer))
	require.True(t, IsCode(outer, CodeRateLimited))
}

func TestCodeOf_UnmappedError(t *testing.T) {
	require.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
}

func TestMessageOf_NeverLeaksInternals(t *testing.T) {
	msg := MessageOf(errors.New("pq: connection refused"))
	require.NotContains(t, msg, "pq:")
	require.NotEmpty(t, msg)
}

func TestGateCancelled_HasEmptyMessage(t *testing.T) {
	require.Empty(t, New(CodeGateCancelled).Message)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(CodeNetwork, cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "network")
}
