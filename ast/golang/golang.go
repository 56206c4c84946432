// Package golang is the Go front end of the AST Surface, grounded on the
// teacher's inspector/golang/inspector_tree_sitter.go tree-sitter walk:
// query for package/type/func declarations, then recurse per declaration
// kind. Entity kinds follow §4.1's Go mapping: function_declaration,
// method_declaration.
package golang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/ast/internal/tsutil"
	"github.com/viant/rpgraph/graph"
)

// Inspector is the Go ast.Parser implementation.
type Inspector struct{}

// New returns a Go Parser.
func New() *Inspector { return &Inspector{} }

func (i *Inspector) Language() graph.Language { return graph.LangGo }

func (i *Inspector) Parse(source []byte, filePath string) ast.ParseResult {
	root, err := tsutil.Parse(source, golang.GetLanguage())
	if err != nil {
		return ast.ParseResult{Errors: []ast.ParseError{{Message: err.Error()}}}
	}
	var result ast.ParseResult
	tsutil.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_declaration":
			result.Imports = append(result.Imports, extractImports(n, source)...)
			return false
		case "function_declaration":
			result.Entities = append(result.Entities, entityFromFunc(n, source, ""))
			return false
		case "method_declaration":
			recv := receiverTypeName(n, source)
			result.Entities = append(result.Entities, entityFromMethod(n, source, recv))
			return false
		case "type_declaration":
			result.Entities = append(result.Entities, entitiesFromTypeDecl(n, source)...)
			return false
		}
		return true
	})
	if tsutil.HasError(root) {
		result.Errors = append(result.Errors, ast.ParseError{Message: "parse error recovered by tree-sitter in " + filePath})
	}
	return result
}

func extractImports(n *sitter.Node, src []byte) []ast.ImportDecl {
	var out []ast.ImportDecl
	tsutil.Walk(n, func(spec *sitter.Node) bool {
		if spec.Type() != "import_spec" {
			return true
		}
		pathNode := spec.ChildByFieldName("path")
		path := strings.Trim(tsutil.Text(pathNode, src), `"`)
		alias := ""
		if name := spec.ChildByFieldName("name"); name != nil {
			alias = tsutil.Text(name, src)
		}
		out = append(out, ast.ImportDecl{Alias: alias, Path: path, Line: tsutil.StartLine(spec)})
		return false
	})
	return out
}

func receiverTypeName(n *sitter.Node, src []byte) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	name := ""
	tsutil.Walk(recv, func(c *sitter.Node) bool {
		if c.Type() == "type_identifier" {
			name = tsutil.Text(c, src)
			return false
		}
		return true
	})
	return name
}

func entityFromFunc(n *sitter.Node, src []byte, parent string) ast.CodeEntity {
	name := tsutil.FieldText(n, "name", src)
	return ast.CodeEntity{
		Kind:          ast.KindFunction,
		Name:          name,
		StartLine:     tsutil.StartLine(n),
		EndLine:       tsutil.EndLine(n),
		Parameters:    paramList(n.ChildByFieldName("parameters"), src),
		ReturnType:    tsutil.FieldText(n, "result", src),
		Parent:        parent,
		QualifiedName: qualify(parent, name),
		Body:          tsutil.Text(n, src),
	}
}

func entityFromMethod(n *sitter.Node, src []byte, recv string) ast.CodeEntity {
	e := entityFromFunc(n, src, recv)
	e.Kind = ast.KindMethod
	return e
}

func entitiesFromTypeDecl(n *sitter.Node, src []byte) []ast.CodeEntity {
	var out []ast.CodeEntity
	tsutil.Walk(n, func(spec *sitter.Node) bool {
		if spec.Type() != "type_spec" {
			return true
		}
		name := tsutil.FieldText(spec, "name", src)
		out = append(out, ast.CodeEntity{
			Kind:          ast.KindClass,
			Name:          name,
			StartLine:     tsutil.StartLine(n),
			EndLine:       tsutil.EndLine(n),
			QualifiedName: name,
			Body:          tsutil.Text(n, src),
		})
		return false
	})
	return out
}

func paramList(params *sitter.Node, src []byte) []ast.Parameter {
	if params == nil {
		return nil
	}
	var out []ast.Parameter
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		out = append(out, ast.Parameter{
			Name: tsutil.FieldText(p, "name", src),
			Type: tsutil.FieldText(p, "type", src),
		})
	}
	return out
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// ExtractCallSites walks call_expression nodes, tracking enclosing
// function/method scope for CallerEntity, the way analyzer/golang_analyzer.go
// tracks scope while resolving identifiers.
func (i *Inspector) ExtractCallSites(source []byte, filePath string) []ast.CallSite {
	root, err := tsutil.Parse(source, golang.GetLanguage())
	if err != nil {
		return nil
	}
	var sites []ast.CallSite
	var walk func(n *sitter.Node, scope string)
	walk = func(n *sitter.Node, scope string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			scope = tsutil.FieldText(n, "name", source)
		case "method_declaration":
			recv := receiverTypeName(n, source)
			scope = qualify(recv, tsutil.FieldText(n, "name", source))
		case "call_expression":
			sites = append(sites, callSiteFrom(n, source, filePath, scope))
		}
		for c := 0; c < int(n.ChildCount()); c++ {
			walk(n.Child(c), scope)
		}
	}
	walk(root, "")
	return sites
}

func callSiteFrom(n *sitter.Node, src []byte, filePath, scope string) ast.CallSite {
	fn := n.ChildByFieldName("function")
	callee := tsutil.Text(fn, src)
	receiver := ""
	kind := ast.ReceiverNone
	if fn != nil && fn.Type() == "selector_expression" {
		operand := fn.ChildByFieldName("operand")
		field := fn.ChildByFieldName("field")
		receiver = tsutil.Text(operand, src)
		callee = tsutil.Text(field, src)
		switch receiver {
		case "":
			kind = ast.ReceiverNone
		default:
			kind = ast.ReceiverVariable
		}
	}
	return ast.CallSite{
		CalleeSymbol: callee,
		CallerFile:   filePath,
		CallerEntity: scope,
		Line:         tsutil.StartLine(n),
		Receiver:     receiver,
		ReceiverKind: kind,
	}
}

// ExtractInheritances has no direct equivalent in Go (no classes); Go's
// nearest analogue is interface satisfaction, which is structural rather
// than declared, so this always returns nil. Kept to satisfy ast.Parser.
func (i *Inspector) ExtractInheritances(source []byte, filePath string) []ast.InheritanceRelation {
	return nil
}
