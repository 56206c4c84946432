package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/rpgraph/rpgerr"
)

func tempDocURL(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("file://%s/graph-%s.json", t.TempDir(), t.Name())
}

func TestSaveLoadDocument_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	url := tempDocURL(t)

	doc := &Document{
		Version: SchemaVersion,
		Config:  Config{Name: "demo", RootPath: "/repo"},
		Nodes: []*Node{
			{ID: "a.ts:file", Kind: LowLevel,
				Feature:  SemanticFeature{Description: "define greeting helpers", Keywords: []string{"greet"}},
				Metadata: &StructuralMetadata{EntityType: EntityFile, Path: "a.ts", Language: LangTypeScript}},
			{ID: "domain:Auth", Kind: HighLevel,
				Feature: SemanticFeature{Description: "validate credentials"}},
		},
		Edges: []*Edge{
			{Source: "domain:Auth", Target: "a.ts:file", Kind: Functional},
		},
	}
	require.NoError(t, SaveDocument(ctx, fs, url, doc))

	got, err := LoadDocument(ctx, fs, url)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.Config, got.Config)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, doc.Nodes[0].ID, got.Nodes[0].ID)
	assert.Equal(t, doc.Nodes[0].Feature, got.Nodes[0].Feature)
	require.Len(t, got.Edges, 1)
	assert.Equal(t, doc.Edges[0].Source, got.Edges[0].Source)
}

func TestLoadDocument_MissingIsNotFound(t *testing.T) {
	_, err := LoadDocument(context.Background(), afs.New(), tempDocURL(t))
	require.Error(t, err)
	assert.Equal(t, rpgerr.CodeNotFound, rpgerr.CodeOf(err))
}
