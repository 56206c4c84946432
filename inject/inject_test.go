package inject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/graph/memstore"
	"github.com/viant/rpgraph/rpg"
)

func TestFileNodeID(t *testing.T) {
	assert.Equal(t, "src/a.go:file", FileNodeID("src/a.go"))
}

func TestDefaultCommonNames_BlocksGenericVerbs(t *testing.T) {
	names := DefaultCommonNames()
	assert.True(t, names["get"])
	assert.True(t, names["main"])
	assert.False(t, names["authenticate"])
}

func TestResolveImport_RelativeMatchesKnownFileDirectly(t *testing.T) {
	allPaths := []string{"src/a.ts", "src/b.ts"}
	target, ok := resolveImport(ast.ImportDecl{Path: "./b"}, "src/a.ts", graph.LangTypeScript, allPaths)
	require.True(t, ok)
	assert.Equal(t, "src/b.ts", target)
}

func TestResolveImport_RelativeTriesExtensionCandidates(t *testing.T) {
	allPaths := []string{"src/a.ts", "src/utils/index.ts"}
	target, ok := resolveImport(ast.ImportDecl{Path: "./utils"}, "src/a.ts", graph.LangTypeScript, allPaths)
	require.True(t, ok)
	assert.Equal(t, "src/utils/index.ts", target)
}

func TestResolveImport_SuffixFallbackUniqueMatch(t *testing.T) {
	allPaths := []string{"lib/helpers.py", "lib/other.py"}
	target, ok := resolveImport(ast.ImportDecl{Path: "mypkg.helpers"}, "main.py", graph.LangPython, allPaths)
	require.True(t, ok)
	assert.Equal(t, "lib/helpers.py", target)
}

func TestResolveImport_AmbiguousSuffixFallbackNoMatch(t *testing.T) {
	allPaths := []string{"a/helpers.py", "b/helpers.py"}
	_, ok := resolveImport(ast.ImportDecl{Path: "mypkg.helpers"}, "main.py", graph.LangPython, allPaths)
	assert.False(t, ok)
}

func TestResolveImport_EmptyImportSegmentNoMatch(t *testing.T) {
	_, ok := resolveImport(ast.ImportDecl{Path: "."}, "main.py", graph.LangPython, []string{"a.py"})
	assert.False(t, ok)
}

func newInjectorNoStore() *Injector {
	return New(rpg.New(nil, graph.Config{}), nil)
}

func TestResolveGoImport_StripsModulePrefixAndMatchesPackageDir(t *testing.T) {
	allPaths := []string{"graph/types.go", "graph/store.go", "cache/cache.go"}
	target, ok := resolveGoImport("github.com/viant/rpgraph/graph", "github.com/viant/rpgraph", allPaths)
	require.True(t, ok)
	assert.Equal(t, "graph/store.go", target)
}

func TestResolveGoImport_OutsideModuleNoMatch(t *testing.T) {
	allPaths := []string{"graph/types.go"}
	_, ok := resolveGoImport("github.com/other/project/graph", "github.com/viant/rpgraph", allPaths)
	assert.False(t, ok)
}

func TestInjectorResolve_GoModuleImportPreferredOverSuffixFallback(t *testing.T) {
	inj := newInjectorNoStore()
	inj.GoModulePath = "github.com/viant/rpgraph"
	allPaths := []string{"graph/types.go", "graph/store.go", "unrelated/graph.go"}
	target, ok := inj.resolve(ast.ImportDecl{Path: "github.com/viant/rpgraph/graph"}, "main.go", graph.LangGo, allPaths)
	require.True(t, ok)
	assert.Equal(t, "graph/store.go", target)
}

func TestInjectorResolve_FallsBackToSuffixMatchWithoutModulePath(t *testing.T) {
	inj := newInjectorNoStore()
	allPaths := []string{"graph/types.go"}
	target, ok := inj.resolve(ast.ImportDecl{Path: "github.com/viant/rpgraph/graph"}, "main.go", graph.LangGo, allPaths)
	require.True(t, ok)
	assert.Equal(t, "graph/types.go", target)
}

func TestBuildSymbolTable_IndexesQualifiedUnqualifiedAndClasses(t *testing.T) {
	files := []ParsedFile{
		{Path: "a.py", Entities: []ast.CodeEntity{
			{Kind: ast.KindClass, Name: "Widget", QualifiedName: "Widget"},
			{Kind: ast.KindMethod, Name: "render", Parent: "Widget", QualifiedName: "Widget.render"},
		}},
		{Path: "b.py", Entities: []ast.CodeEntity{
			{Kind: ast.KindFunction, Name: "helper", QualifiedName: "helper"},
		}},
	}
	inj := newInjectorNoStore()
	table := inj.buildSymbolTable(files, []string{"a.py", "b.py"})

	assert.Equal(t, "a.py", table.qualified["Widget.render"])
	assert.Equal(t, "a.py", table.classToFile["Widget"])
	assert.Equal(t, []string{"b.py"}, table.unqualified["helper"])
}

func TestBuildSymbolTable_RecordsFileAliasesFromResolvableImports(t *testing.T) {
	files := []ParsedFile{
		{Path: "src/a.ts", Language: graph.LangTypeScript, Imports: []ast.ImportDecl{{Path: "./b", Alias: "B"}}},
		{Path: "src/b.ts", Language: graph.LangTypeScript},
	}
	inj := newInjectorNoStore()
	table := inj.buildSymbolTable(files, []string{"src/a.ts", "src/b.ts"})
	assert.Equal(t, "src/b.ts", table.fileAliases["src/a.ts"]["B"])
}

func TestResolveCallee_SelfResolvesWithinEnclosingClass(t *testing.T) {
	table := &symbolTable{qualified: map[string]string{"Widget.render": "a.py"}, classToFile: map[string]string{}}
	call := ast.CallSite{CalleeSymbol: "render", CallerEntity: "Widget.build", ReceiverKind: ast.ReceiverSelf}
	f := ParsedFile{Path: "a.py"}
	got := resolveCallee(call, f, receiverTypes{}, table, nil)
	assert.Equal(t, "a.py", got)
}

func TestResolveCallee_SuperResolvesViaInferredParent(t *testing.T) {
	table := &symbolTable{qualified: map[string]string{}, classToFile: map[string]string{"Base": "base.py"}}
	inferred := receiverTypes{superOf: map[string]string{"Widget": "Base"}}
	call := ast.CallSite{CalleeSymbol: "render", CallerEntity: "Widget.build", ReceiverKind: ast.ReceiverSuper}
	got := resolveCallee(call, ParsedFile{Path: "widget.py"}, inferred, table, nil)
	assert.Equal(t, "base.py", got)
}

func TestResolveCallee_VariableResolvesViaInferredLocalType(t *testing.T) {
	table := &symbolTable{qualified: map[string]string{}, classToFile: map[string]string{"Logger": "logger.py"}}
	inferred := receiverTypes{localVarClass: map[string]string{"main\x00log": "Logger"}}
	call := ast.CallSite{CalleeSymbol: "write", CallerEntity: "main", Receiver: "log", ReceiverKind: ast.ReceiverVariable}
	got := resolveCallee(call, ParsedFile{Path: "main.py"}, inferred, table, nil)
	assert.Equal(t, "logger.py", got)
}

func TestResolveCallee_FallsBackToFileAliasOnUnresolvedType(t *testing.T) {
	table := &symbolTable{
		qualified:   map[string]string{},
		classToFile: map[string]string{},
		fileAliases: map[string]map[string]string{"a.ts": {"helper": "helper.ts"}},
	}
	call := ast.CallSite{CalleeSymbol: "helper", ReceiverKind: ast.ReceiverNone}
	got := resolveCallee(call, ParsedFile{Path: "a.ts"}, receiverTypes{}, table, nil)
	assert.Equal(t, "helper.ts", got)
}

func TestResolveCallee_FileAliasMatchesQualifiedReceiverOverCalleeName(t *testing.T) {
	table := &symbolTable{
		qualified:   map[string]string{},
		classToFile: map[string]string{},
		fileAliases: map[string]map[string]string{"a.ts": {"utils": "utils.ts"}},
	}
	call := ast.CallSite{CalleeSymbol: "helper", Receiver: "utils", ReceiverKind: ast.ReceiverVariable}
	got := resolveCallee(call, ParsedFile{Path: "a.ts"}, receiverTypes{}, table, nil)
	assert.Equal(t, "utils.ts", got, "utils.helper() must resolve via the utils alias, not the helper callee name")
}

func TestResolveCallee_BlockListRejectsGenericNameBeforeFuzzyMatch(t *testing.T) {
	table := &symbolTable{unqualified: map[string][]string{"get": {"store.py"}}, fileAliases: map[string]map[string]string{}}
	call := ast.CallSite{CalleeSymbol: "get", ReceiverKind: ast.ReceiverNone}
	got := resolveCallee(call, ParsedFile{Path: "a.py"}, receiverTypes{}, table, map[string]bool{"get": true})
	assert.Empty(t, got)
}

func TestResolveCallee_UniqueUnqualifiedMatchResolves(t *testing.T) {
	table := &symbolTable{unqualified: map[string][]string{"authenticate": {"auth.py"}}, fileAliases: map[string]map[string]string{}}
	call := ast.CallSite{CalleeSymbol: "authenticate", ReceiverKind: ast.ReceiverNone}
	got := resolveCallee(call, ParsedFile{Path: "a.py"}, receiverTypes{}, table, nil)
	assert.Equal(t, "auth.py", got)
}

func TestResolveCallee_AmbiguousUnqualifiedMatchDropsCall(t *testing.T) {
	table := &symbolTable{unqualified: map[string][]string{"authenticate": {"auth.py", "other.py"}}, fileAliases: map[string]map[string]string{}}
	call := ast.CallSite{CalleeSymbol: "authenticate", ReceiverKind: ast.ReceiverNone}
	got := resolveCallee(call, ParsedFile{Path: "a.py"}, receiverTypes{}, table, nil)
	assert.Empty(t, got)
}

func TestInferReceiverTypes_LocalAssignmentFromConstructorCall(t *testing.T) {
	f := ParsedFile{Entities: []ast.CodeEntity{
		{QualifiedName: "main", Body: "log := Logger(\"x\")\nlog.write()"},
	}}
	out := inferReceiverTypes(f, nil)
	assert.Equal(t, "Logger", out.localVarClass["main\x00log"])
}

func TestInferReceiverTypes_FieldAssignmentFromSelfConstructor(t *testing.T) {
	f := ParsedFile{Entities: []ast.CodeEntity{
		{Name: "__init__", Parent: "Widget", QualifiedName: "Widget.__init__", Body: "self.logger = Logger()"},
	}}
	out := inferReceiverTypes(f, nil)
	assert.Equal(t, "Logger", out.fieldClass["Widget\x00logger"])
}

func TestInferReceiverTypes_SuperOfKeepsFirstSeenParentOnCycleGuard(t *testing.T) {
	rels := []ast.InheritanceRelation{
		{Child: "B", Parent: "A"},
		{Child: "B", Parent: "C"}, // duplicate child, must be ignored
	}
	out := inferReceiverTypes(ParsedFile{}, rels)
	assert.Equal(t, "A", out.superOf["B"])
}

func TestRun_EndToEnd_CrossFileUnqualifiedCallEmitsDependencyEdge(t *testing.T) {
	ctx := context.Background()
	store, err := memstore.Open("memory")
	require.NoError(t, err)
	r := rpg.New(store, graph.Config{})

	aSrc := []byte("package sample\n\nfunc A() {\n\tB()\n}\n")
	bSrc := []byte("package sample\n\nfunc B() {}\n")

	aFile := &graph.Node{ID: "a.go:file", Kind: graph.LowLevel, Feature: graph.SemanticFeature{Description: "define module"}, Metadata: &graph.StructuralMetadata{Path: "a.go"}}
	bFile := &graph.Node{ID: "b.go:file", Kind: graph.LowLevel, Feature: graph.SemanticFeature{Description: "define module"}, Metadata: &graph.StructuralMetadata{Path: "b.go"}}
	require.NoError(t, store.AddNode(ctx, aFile))
	require.NoError(t, store.AddNode(ctx, bFile))

	injector := New(r, ast.NewFactory())
	parserA, ok := injector.Factory.Get(graph.LangGo)
	require.True(t, ok)
	resA := parserA.Parse(aSrc, "a.go")
	resB := parserA.Parse(bSrc, "b.go")

	files := []ParsedFile{
		{Path: "a.go", Language: graph.LangGo, Source: aSrc, Entities: resA.Entities, Imports: resA.Imports},
		{Path: "b.go", Language: graph.LangGo, Source: bSrc, Entities: resB.Entities, Imports: resB.Imports},
	}

	require.NoError(t, injector.Run(ctx, files))

	edges, err := store.GetOutEdges(ctx, "a.go:file", graph.Dependency)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "b.go:file", edges[0].Target)
	assert.Equal(t, graph.DepCall, edges[0].DependencyType)
}
