package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenaiBackend_MissingAPIKeyIsError(t *testing.T) {
	_, err := NewGenaiBackend(context.Background(), GenaiConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewGenaiBackend_InvalidProxyURLIsError(t *testing.T) {
	_, err := NewGenaiBackend(context.Background(), GenaiConfig{APIKey: "key", ProxyURL: "://bad-url"})
	require.Error(t, err)
}

func TestHandleAPIError_ClassifiesKnownFailureModes(t *testing.T) {
	assert.Contains(t, handleAPIError(errors.New("location is not supported for this API")).Error(), "region not supported")
	assert.Contains(t, handleAPIError(errors.New("429 too many requests")).Error(), "rate limit")
	assert.Contains(t, handleAPIError(errors.New("401 unauthorized")).Error(), "authentication failed")
	assert.Contains(t, handleAPIError(errors.New("403 forbidden")).Error(), "authentication failed")
	assert.Contains(t, handleAPIError(errors.New("503 service unavailable")).Error(), "unavailable")
}

func TestHandleAPIError_FallsBackToWrappedOriginal(t *testing.T) {
	err := handleAPIError(errors.New("some other transport failure"))
	assert.Contains(t, err.Error(), "some other transport failure")
}
