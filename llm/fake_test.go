package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBackend_QueueOrder(t *testing.T) {
	b := NewFakeBackend()
	b.Enqueue("<solution>First</solution>")
	b.Enqueue("<solution>Second</solution>")

	first, err := b.Generate(context.Background(), Request{Prompt: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "<solution>First</solution>", first.Content)

	second, err := b.Generate(context.Background(), Request{Prompt: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "<solution>Second</solution>", second.Content)

	third, err := b.Generate(context.Background(), Request{Prompt: "p3"})
	require.NoError(t, err)
	assert.Equal(t, b.DefaultResponse.Content, third.Content)

	require.Len(t, b.Requests, 3)
	assert.Equal(t, "p1", b.Requests[0].Prompt)
}

func TestFakeEmbeddingBackend_Deterministic(t *testing.T) {
	b := NewFakeEmbeddingBackend(4)
	v1, err := b.Embed(context.Background(), []string{"parse files"})
	require.NoError(t, err)
	v2, err := b.Embed(context.Background(), []string{"parse files"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := b.Embed(context.Background(), []string{"totally different text"})
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}
