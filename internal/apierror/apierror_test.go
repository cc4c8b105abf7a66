package apierror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindForStatus(t *testing.T) {
	cases := map[int]Kind{
		401: KindUnauthorized,
		403: KindForbidden,
		404: KindNotFound,
		429: KindRateLimited,
		500: KindServerError,
		502: KindServerError,
		503: KindServerError,
		400: KindClientError,
		409: KindClientError,
		422: KindClientError,
	}
	for status, want := range cases {
		assert.Equal(t, want, KindForStatus(status), "status %d", status)
	}
}

func TestFromResponse_Message(t *testing.T) {
	err := FromResponse("GET", "/members/me", 401, []byte("invalid token"))
	assert.Equal(t, "invalid token", err.Message)
	assert.Equal(t, 401, err.Status)

	err = FromResponse("POST", "/cards", 400, []byte(`{"message":"invalid value for idList","error":"ERROR"}`))
	assert.Equal(t, "invalid value for idList", err.Message)

	err = FromResponse("GET", "/boards/x", 404, nil)
	assert.Equal(t, "Not Found", err.Message)
}

func TestFromResponse_TruncatesOnRuneBoundary(t *testing.T) {
	body := "a" + strings.Repeat("é", 150)
	err := FromResponse("GET", "/boards/x", 502, []byte(body))
	assert.True(t, utf8.ValidString(err.Message))
	assert.Equal(t, "a"+strings.Repeat("é", 99), err.Message)

	err = FromResponse("GET", "/boards/x", 502, []byte(strings.Repeat("x", 300)))
	assert.Len(t, err.Message, 200)
}

func TestAPIError_IsAndAs(t *testing.T) {
	var err error = FromResponse("GET", "/members/me", 429, nil)
	wrapped := fmt.Errorf("load profile: %w", err)

	assert.True(t, errors.Is(wrapped, ErrRateLimited))
	assert.False(t, errors.Is(wrapped, ErrUnauthorized))
	assert.Equal(t, KindRateLimited, KindOf(wrapped))

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "/members/me", apiErr.Path)
}

func TestFromTransport_KeepsCause(t *testing.T) {
	err := FromTransport("GET", "/boards/b1", context.DeadlineExceeded)
	assert.Equal(t, KindNetworkError, err.Kind)
	assert.Zero(t, err.Status)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestIsRetryable(t *testing.T) {
	retryable := []Kind{KindNetworkError, KindServerError, KindRateLimited}
	final := []Kind{KindUnauthorized, KindForbidden, KindNotFound, KindClientError}

	for _, k := range retryable {
		assert.True(t, IsRetryable(&APIError{Kind: k}), string(k))
	}
	for _, k := range final {
		assert.False(t, IsRetryable(&APIError{Kind: k}), string(k))
	}
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestAPIError_Error(t *testing.T) {
	err := FromResponse("PUT", "/cards/c1", 403, []byte("unauthorized card permission requested"))
	assert.Equal(t, "trello PUT /cards/c1: Forbidden (403): unauthorized card permission requested", err.Error())
}
