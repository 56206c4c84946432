package vcs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeBackend_ReturnsCannedChanges(t *testing.T) {
	changes := []FileChange{{File: "a.go", Status: StatusModified}}
	f := &FakeBackend{Changes: changes}

	got, err := f.Diff(context.Background(), "/repo", "base...head")
	require.NoError(t, err)
	assert.Equal(t, changes, got)

	// The canned result does not depend on repoRoot/commitRange.
	got2, err := f.Diff(context.Background(), "/other", "v1...v2")
	require.NoError(t, err)
	assert.Equal(t, changes, got2)
}

func TestFakeBackend_ReturnsConfiguredError(t *testing.T) {
	f := &FakeBackend{Err: errors.New("diff unavailable")}
	_, err := f.Diff(context.Background(), "/repo", "base...head")
	assert.EqualError(t, err, "diff unavailable")
}
