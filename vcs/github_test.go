package vcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	base, head, ok := splitRange("main...feature")
	require.True(t, ok)
	assert.Equal(t, "main", base)
	assert.Equal(t, "feature", head)

	_, _, ok = splitRange("main")
	assert.False(t, ok, "a range without ... must be rejected")

	_, _, ok = splitRange("...feature")
	assert.False(t, ok, "an empty base must be rejected")

	_, _, ok = splitRange("main...")
	assert.False(t, ok, "an empty head must be rejected")
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, StatusAdded, mapStatus("added"))
	assert.Equal(t, StatusDeleted, mapStatus("removed"))
	assert.Equal(t, StatusModified, mapStatus("renamed"))
	assert.Equal(t, StatusModified, mapStatus("modified"))
	assert.Equal(t, StatusModified, mapStatus("unknown-status"))
}

func TestGitHubBackend_DiffRejectsMalformedCommitRange(t *testing.T) {
	b := NewGitHubBackend(GitHubConfig{Owner: "acme", Repo: "widgets"})
	_, err := b.Diff(context.Background(), "/repo", "not-a-range")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base...head")
}
