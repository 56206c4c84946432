package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
)

func TestEntityNodeID_UsesRelPathKindAndQualifiedName(t *testing.T) {
	id := entityNodeID("src/auth.go", ast.CodeEntity{Kind: ast.KindMethod, QualifiedName: "Session.Login"})
	assert.Equal(t, "src/auth.go:method:Session.Login", id)
}

func TestGraphEntityKind_MapsClassMethodAndDefaultsToFunction(t *testing.T) {
	assert.Equal(t, graph.EntityClass, graphEntityKind(ast.KindClass))
	assert.Equal(t, graph.EntityMethod, graphEntityKind(ast.KindMethod))
	assert.Equal(t, graph.EntityFunction, graphEntityKind(ast.KindFunction))
	assert.Equal(t, graph.EntityFunction, graphEntityKind(ast.KindVariable))
}

func TestFileMetadata(t *testing.T) {
	md := fileMetadata("src/auth.go", graph.LangGo)
	assert.Equal(t, graph.EntityFile, md.EntityType)
	assert.Equal(t, "src/auth.go", md.Path)
	assert.Equal(t, graph.LangGo, md.Language)
}

func TestEntityMetadata_CarriesLinesAndQualifiedName(t *testing.T) {
	e := ast.CodeEntity{Kind: ast.KindFunction, QualifiedName: "Login", StartLine: 3, EndLine: 9}
	md := entityMetadata("src/auth.go", graph.LangGo, e)
	assert.Equal(t, graph.EntityFunction, md.EntityType)
	assert.Equal(t, "Login", md.QualifiedName)
	assert.Equal(t, 3, md.StartLine)
	assert.Equal(t, 9, md.EndLine)
}

func TestFilterNodeEntities_KeepsOnlyNodeBearingKinds(t *testing.T) {
	entities := []ast.CodeEntity{
		{Kind: ast.KindFunction, Name: "F"},
		{Kind: ast.KindVariable, Name: "v"},
		{Kind: ast.KindImport, Name: "fmt"},
		{Kind: ast.KindClass, Name: "C"},
		{Kind: ast.KindMethod, Name: "M"},
	}
	out := FilterNodeEntities(entities)
	require.Len(t, out, 3)
	assert.Equal(t, "F", out[0].Name)
	assert.Equal(t, "C", out[1].Name)
	assert.Equal(t, "M", out[2].Name)
}
