package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/cache"
	"github.com/viant/rpgraph/graph"
)

func entityOfTokens(name string, tokens int) ast.CodeEntity {
	bodyBytes := (tokens - perEntityOverhead) * bytesPerToken
	if bodyBytes < 0 {
		bodyBytes = 0
	}
	return ast.CodeEntity{Kind: ast.KindFunction, Name: name, QualifiedName: name, Body: strings.Repeat("x", bodyBytes)}
}

func TestPartitionBatches_EmptyInput(t *testing.T) {
	x := New(nil, nil)
	assert.Nil(t, x.partitionBatches(nil))
}

func TestPartitionBatches_OversizedEntityIsolatedAlone(t *testing.T) {
	x := New(nil, nil)
	x.MaxBatchTokens = 1000
	x.MinBatchTokens = 100
	huge := entityOfTokens("Huge", 5000)
	small := entityOfTokens("Small", 50)

	batches := x.partitionBatches([]ast.CodeEntity{small, huge, small})
	require.Len(t, batches, 3)
	assert.Len(t, batches[1], 1)
	assert.Equal(t, "Huge", batches[1][0].Name)
}

func TestPartitionBatches_AppendsInOrderWithinBudget(t *testing.T) {
	x := New(nil, nil)
	x.MaxBatchTokens = 1000
	x.MinBatchTokens = 0
	entities := []ast.CodeEntity{
		entityOfTokens("A", 400),
		entityOfTokens("B", 400),
		entityOfTokens("C", 400),
	}
	batches := x.partitionBatches(entities)
	// A+B = 800 fits, +C would be 1200 > 1000 so C starts a new batch.
	require.Len(t, batches, 2)
	assert.Equal(t, []string{"A", "B"}, names(batches[0]))
	assert.Equal(t, []string{"C"}, names(batches[1]))
}

func TestPartitionBatches_SmallTrailingEntityJoinsPredecessorWithinMax(t *testing.T) {
	x := New(nil, nil)
	x.MaxBatchTokens = 1000
	x.MinBatchTokens = 200
	entities := []ast.CodeEntity{
		entityOfTokens("A", 900),
		entityOfTokens("B", 50), // 900+50=950 fits within max, so B joins A's batch
	}
	batches := x.partitionBatches(entities)
	require.Len(t, batches, 1, "no undersized final batch is left since the combined size fits max")
	assert.Equal(t, []string{"A", "B"}, names(batches[0]))
}

func TestPartitionBatches_SmallFinalBatchKeptSeparateWhenMergeWouldOverflow(t *testing.T) {
	x := New(nil, nil)
	x.MaxBatchTokens = 1000
	x.MinBatchTokens = 200
	entities := []ast.CodeEntity{
		entityOfTokens("A", 950),
		entityOfTokens("B", 100),
	}
	batches := x.partitionBatches(entities)
	require.Len(t, batches, 2, "950+100 exceeds max so the small final batch stays on its own")
}

func TestExtractBatch_FlattenPreservesOrder(t *testing.T) {
	x := New(nil, nil)
	entities := []ast.CodeEntity{
		entityOfTokens("Alpha", 100),
		entityOfTokens("Beta", 100),
		entityOfTokens("Gamma", 100),
	}
	out, err := x.ExtractBatch(nil, "a.go", entities)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "handle alpha logic", out[0].Description)
	assert.Equal(t, "handle beta logic", out[1].Description)
	assert.Equal(t, "handle gamma logic", out[2].Description)
}

func TestExtractBatch_EmptyInputEmptyOutput(t *testing.T) {
	x := New(nil, nil)
	out, err := x.ExtractBatch(nil, "a.go", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestHeuristicFeature_VerbObjectFromCamelCase(t *testing.T) {
	f := heuristicFeature(ast.CodeEntity{Kind: ast.KindFunction, Name: "getUserProfile"})
	assert.Equal(t, "retrieve user profile", f.Description)
	assert.Equal(t, []string{"retrieve", "user", "profile"}, f.Keywords)
}

func TestHeuristicFeature_UnknownPrefixFallsBackToHandle(t *testing.T) {
	f := heuristicFeature(ast.CodeEntity{Kind: ast.KindFunction, Name: "zorbMatrix"})
	assert.True(t, strings.HasPrefix(f.Description, "handle "))
}

func TestAggregateFileFeatures_EmptyChildrenFallsBackToName(t *testing.T) {
	x := New(nil, nil)
	f := x.AggregateFileFeatures(nil, "user_profile.go", "src/user_profile.go")
	assert.Contains(t, f.Description, "user")
	assert.Contains(t, f.Description, "profile")
}

func TestAggregateFileFeatures_MergesAndDedupesKeywords(t *testing.T) {
	x := New(nil, nil)
	children := []graph.SemanticFeature{
		{Description: "authenticate user request", Keywords: []string{"authenticate", "user"}},
		{Description: "authorize user action", Keywords: []string{"authorize", "user"}},
	}
	f := x.AggregateFileFeatures(children, "auth.go", "src/auth.go")
	assert.ElementsMatch(t, []string{"authenticate", "user", "authorize"}, f.Keywords)
}

func TestExtract_CachesByContentHash(t *testing.T) {
	c := cache.New(nil, "memory://cache.json")
	x := New(nil, c)
	entity := ast.CodeEntity{Kind: ast.KindFunction, Name: "getUser", QualifiedName: "getUser", Body: "func getUser() {}"}

	f1, err := x.Extract(nil, "a.go", entity)
	require.NoError(t, err)

	cached, ok := c.Get("a.go", "getUser", []byte(entity.Body))
	require.True(t, ok)
	assert.Equal(t, f1, cached)
}

func names(batch []ast.CodeEntity) []string {
	out := make([]string, len(batch))
	for i, e := range batch {
		out[i] = e.Name
	}
	return out
}
