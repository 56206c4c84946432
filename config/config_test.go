package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/rpgerr"
)

func TestDefault_NamedDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.Encoder.MaxDepth)
	assert.Equal(t, 10000, cfg.Encoder.Semantic.MinBatchTokens)
	assert.Equal(t, 50000, cfg.Encoder.Semantic.MaxBatchTokens)
	assert.Equal(t, 0.3, cfg.Evolution.DriftThreshold)
	assert.True(t, cfg.Evolution.UseLLM)
}

func TestLoad_OverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rpg.yaml")
	yaml := `
encoder:
  maxDepth: 4
  semantic:
    useLLM: true
evolution:
  commitRange: "base...head"
  driftThreshold: 0.5
tools:
  mode: auto
  featureTerms: ["authentication"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Encoder.MaxDepth)
	assert.True(t, cfg.Encoder.Semantic.UseLLM)
	// Defaults not touched by the file are preserved.
	assert.Equal(t, 10000, cfg.Encoder.Semantic.MinBatchTokens)
	assert.Equal(t, "base...head", cfg.Evolution.CommitRange)
	assert.Equal(t, 0.5, cfg.Evolution.DriftThreshold)
	assert.Equal(t, ModeAuto, cfg.Tools.Mode)
	assert.Equal(t, []string{"authentication"}, cfg.Tools.FeatureTerms)
}

func TestLoad_MissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, rpgerr.CodeConfig, rpgerr.CodeOf(err))
}

func TestLoad_InvalidYAMLIsConfigError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))

	_, err := Load(path)
	assert.Equal(t, rpgerr.CodeConfig, rpgerr.CodeOf(err))
}
