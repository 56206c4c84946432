package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerBackend_ProxiesSuccessfulCalls(t *testing.T) {
	inner := NewFakeBackend()
	inner.Enqueue("<solution>ok</solution>")
	b := NewBreakerBackend("t1", inner)

	resp, err := b.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "<solution>ok</solution>", resp.Content)
}

func TestBreakerBackend_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &FakeBackend{Err: errors.New("backend unavailable")}
	b := NewBreakerBackend("t2", inner)

	for i := 0; i < 5; i++ {
		_, err := b.Generate(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
	}

	// The 5th consecutive failure tripped the breaker open; the 6th call is
	// rejected without invoking the inner backend, so the error comes from
	// gobreaker itself.
	before := len(inner.Requests)
	_, err := b.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, before, len(inner.Requests), "an open circuit short-circuits before reaching the wrapped backend")
}
