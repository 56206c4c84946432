// Package config holds the recognized configuration surface of §6: struct
// shapes for the Encoder, Evolution, and Tools collaborators, loaded with
// gopkg.in/yaml.v3 the way the teacher's inspector/info.Config is a plain
// struct with a DefaultConfig(), generalized here to the full set of options
// the specification names.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viant/rpgraph/rpgerr"
)

// Semantic configures the Semantic Extractor's batching and backend choice.
type Semantic struct {
	UseLLM         bool   `yaml:"useLLM"`
	MinBatchTokens int    `yaml:"minBatchTokens"`
	MaxBatchTokens int    `yaml:"maxBatchTokens"`
	Provider       string `yaml:"provider"`
}

// Cache configures the Semantic Cache's persistence.
type Cache struct {
	Dir     string `yaml:"dir"`
	Enabled bool   `yaml:"enabled"`
}

// Encoder configures a full C5 encode() run.
type Encoder struct {
	IncludeSource bool     `yaml:"includeSource"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	MaxDepth      int      `yaml:"maxDepth"`
	Semantic      Semantic `yaml:"semantic"`
	Cache         Cache    `yaml:"cache"`
}

// DefaultEncoder returns the defaults named in §6: maxDepth 10, batch
// tokens 10000/50000.
func DefaultEncoder() Encoder {
	return Encoder{
		Include:  []string{"**/*"},
		MaxDepth: 10,
		Semantic: Semantic{
			MinBatchTokens: 10000,
			MaxBatchTokens: 50000,
		},
	}
}

// Evolution configures a C9 evolve() run.
type Evolution struct {
	CommitRange    string  `yaml:"commitRange"`
	DriftThreshold float64 `yaml:"driftThreshold"`
	UseLLM         bool    `yaml:"useLLM"`
	OutputPath     string  `yaml:"outputPath,omitempty"`
}

// DefaultEvolution returns the default drift threshold of 0.3 (§4.9, §6).
func DefaultEvolution() Evolution {
	return Evolution{DriftThreshold: 0.3, UseLLM: true}
}

// ToolsMode enumerates C10's three query modes.
type ToolsMode string

const (
	ModeFeatures ToolsMode = "features"
	ModeSnippets ToolsMode = "snippets"
	ModeAuto     ToolsMode = "auto"
)

// Tools configures a C10 search/fetch/explore call.
type Tools struct {
	Mode          ToolsMode           `yaml:"mode"`
	FeatureTerms  []string            `yaml:"featureTerms,omitempty"`
	SearchTerms   []string            `yaml:"searchTerms,omitempty"`
	SearchScopes  []string            `yaml:"searchScopes,omitempty"`
	FilePattern   string              `yaml:"filePattern,omitempty"`
	LineRange     *[2]int             `yaml:"lineRange,omitempty"`
	MaxDepth      int                 `yaml:"maxDepth,omitempty"`
	Direction     string              `yaml:"direction,omitempty"`
	EdgeType      string              `yaml:"edgeType,omitempty"`
}

// Config is the root configuration document, loadable from a single YAML
// file via Load.
type Config struct {
	Encoder   Encoder   `yaml:"encoder"`
	Evolution Evolution `yaml:"evolution"`
	Tools     Tools     `yaml:"tools"`
}

// Default returns a Config with every section defaulted.
func Default() Config {
	return Config{Encoder: DefaultEncoder(), Evolution: DefaultEvolution()}
}

// Load reads and parses a YAML configuration file at path, starting from
// Default() so unspecified sections keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rpgerr.Config("read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, rpgerr.Config("parse config %s: %v", path, err)
	}
	return &cfg, nil
}
