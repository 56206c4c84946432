package inject

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestLoadGoModulePath_ParsesDeclaredModulePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module github.com/viant/rpgraph\n\ngo 1.21\n"), 0o644))

	path, ok := LoadGoModulePath(context.Background(), afs.New(), dir)
	require.True(t, ok)
	assert.Equal(t, "github.com/viant/rpgraph", path)
}

func TestLoadGoModulePath_MissingGoModNoError(t *testing.T) {
	_, ok := LoadGoModulePath(context.Background(), afs.New(), t.TempDir())
	assert.False(t, ok)
}

func TestLoadGoModulePath_UnparsableGoModNoError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("not a go.mod file"), 0o644))

	_, ok := LoadGoModulePath(context.Background(), afs.New(), dir)
	assert.False(t, ok)
}
