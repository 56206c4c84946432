package encode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func writeTempRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.go"), []byte("package src\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a_test.go"), []byte("package src\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "deep", "b.go"), []byte("package deep\n"), 0o644))
	return dir
}

func TestDiscover_NonExistentRootReturnsEmptyNoError(t *testing.T) {
	files, err := discover(context.Background(), afs.New(), filepath.Join(t.TempDir(), "missing"), nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscover_WalksAndSortsFiles(t *testing.T) {
	dir := writeTempRepo(t)
	files, err := discover(context.Background(), afs.New(), dir, nil, []string{"**/*_test.go"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "src/a.go", "src/deep/b.go"}, files)
}

func TestDiscover_MaxDepthBoundsTraversal(t *testing.T) {
	dir := writeTempRepo(t)
	files, err := discover(context.Background(), afs.New(), dir, nil, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files)
}

func TestDiscover_IncludeFiltersToPattern(t *testing.T) {
	dir := writeTempRepo(t)
	files, err := discover(context.Background(), afs.New(), dir, []string{"src/**/*"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go", "src/a_test.go", "src/deep/b.go"}, files)
}

func TestMatchGlob_DoubleStarMatchesZeroOrMoreSegments(t *testing.T) {
	assert.True(t, matchGlob("**/*.go", "a.go"))
	assert.True(t, matchGlob("**/*.go", "src/deep/a.go"))
	assert.False(t, matchGlob("**/*.go", "src/deep/a.txt"))
}

func TestMatchGlob_SingleStarMatchesWithinSegment(t *testing.T) {
	assert.True(t, matchGlob("src/*.go", "src/a.go"))
	assert.False(t, matchGlob("src/*.go", "src/deep/a.go"))
}

func TestDepthOf(t *testing.T) {
	assert.Equal(t, 0, depthOf(""))
	assert.Equal(t, 1, depthOf("main.go"))
	assert.Equal(t, 2, depthOf("src/a.go"))
}
