package rust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
)

const sample = `use util::helper;

struct Greeter {
	name: String,
}

trait Named {
	fn name(&self) -> String;
}

impl Named for Greeter {
	fn name(&self) -> String {
		self.format()
	}
}

impl Greeter {
	fn format(&self) -> String {
		helper()
	}
}

fn run() {
	Greeter::new();
}
`

func TestInspector_LanguageIsRust(t *testing.T) {
	assert.Equal(t, graph.LangRust, New().Language())
}

func TestInspector_ParseStructsTraitsAndImplMethods(t *testing.T) {
	res := New().Parse([]byte(sample), "sample.rs")
	require.Empty(t, res.Errors)
	require.NotEmpty(t, res.Entities)

	var names []string
	for _, e := range res.Entities {
		names = append(names, string(e.Kind)+":"+e.QualifiedName)
	}
	assert.Contains(t, names, "class:Greeter")
	assert.Contains(t, names, "class:Named")
	assert.Contains(t, names, "method:Greeter.name")
	assert.Contains(t, names, "method:Greeter.format")
	assert.Contains(t, names, "function:run")

	require.Len(t, res.Imports, 1)
}

func TestInspector_ExtractCallSitesTracksSelfAndScopedCalls(t *testing.T) {
	sites := New().ExtractCallSites([]byte(sample), "sample.rs")
	require.NotEmpty(t, sites)

	var sawSelf, sawScoped bool
	for _, s := range sites {
		if s.CalleeSymbol == "format" && s.Receiver == "self" {
			assert.Equal(t, ast.ReceiverSelf, s.ReceiverKind)
			sawSelf = true
		}
		if s.CalleeSymbol == "new" && s.Receiver == "Greeter" {
			assert.Equal(t, ast.ReceiverVariable, s.ReceiverKind)
			sawScoped = true
		}
	}
	assert.True(t, sawSelf, "self.format() call must be found with ReceiverSelf")
	assert.True(t, sawScoped, "Greeter::new() scoped call must be found with receiver Greeter")
}

func TestInspector_MalformedInputNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		New().Parse([]byte("fn ("), "broken.rs")
	})
}

func TestInspector_ExtractInheritancesRecoversTraitImplOnly(t *testing.T) {
	rels := New().ExtractInheritances([]byte(sample), "sample.rs")
	require.Len(t, rels, 1)
	assert.Equal(t, "Greeter", rels[0].Child)
	assert.Equal(t, "Named", rels[0].Parent)
	assert.True(t, rels[0].IsInterface)
}

var _ ast.Parser = New()
