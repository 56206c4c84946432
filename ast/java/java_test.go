package java

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
)

const sample = `package sample;

import java.util.List;

public class Greeter extends Base implements Named {
	public Greeter() {
		super();
	}

	public String greet(String name) {
		return this.format(name);
	}
}
`

func TestInspector_LanguageIsJava(t *testing.T) {
	assert.Equal(t, graph.LangJava, New().Language())
}

func TestInspector_ParseClassAndMethods(t *testing.T) {
	res := New().Parse([]byte(sample), "Greeter.java")
	require.Empty(t, res.Errors)
	require.NotEmpty(t, res.Entities)

	var names []string
	for _, e := range res.Entities {
		names = append(names, string(e.Kind)+":"+e.QualifiedName)
	}
	assert.Contains(t, names, "class:Greeter")
	assert.Contains(t, names, "method:Greeter.greet")
	assert.Contains(t, names, "method:Greeter.Greeter")

	require.Len(t, res.Imports, 1)
}

func TestInspector_ExtractCallSitesTracksSelfReceiver(t *testing.T) {
	sites := New().ExtractCallSites([]byte(sample), "Greeter.java")
	require.NotEmpty(t, sites)

	found := false
	for _, s := range sites {
		if s.CalleeSymbol == "format" && s.CallerEntity == "Greeter.greet" {
			assert.Equal(t, ast.ReceiverSelf, s.ReceiverKind)
			found = true
		}
	}
	assert.True(t, found, "this.format(name) call inside Greeter.greet must be found with ReceiverSelf")
}

func TestInspector_MalformedInputNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		New().Parse([]byte("class {"), "broken.java")
	})
}

func TestInspector_ExtractInheritancesRecoversExtendsAndImplements(t *testing.T) {
	rels := New().ExtractInheritances([]byte(sample), "Greeter.java")
	require.Len(t, rels, 2)

	var sawExtends, sawImplements bool
	for _, r := range rels {
		assert.Equal(t, "Greeter", r.Child)
		if r.Parent == "Base" && !r.IsInterface {
			sawExtends = true
		}
		if r.Parent == "Named" && r.IsInterface {
			sawImplements = true
		}
	}
	assert.True(t, sawExtends, "extends Base must produce a non-interface relation")
	assert.True(t, sawImplements, "implements Named must produce an interface relation")
}

var _ ast.Parser = New()
