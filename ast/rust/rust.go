// Package rust is the Rust front end of the AST Surface. Like python, it has
// no teacher precedent in viant-linager; it is grounded on CodeEagle's
// internal/parser/rust package (struct_item/trait_item/impl_item walking,
// the "impl Trait for Type" vs "impl Type" distinction, field_expression vs
// scoped_identifier call resolution), adapted to the shared ast.Parser
// vocabulary.
package rust

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/ast/internal/tsutil"
	"github.com/viant/rpgraph/graph"
)

// Inspector is the Rust ast.Parser implementation.
type Inspector struct{}

// New returns a Rust Parser.
func New() *Inspector { return &Inspector{} }

func (i *Inspector) Language() graph.Language { return graph.LangRust }

func (i *Inspector) Parse(source []byte, filePath string) ast.ParseResult {
	root, err := tsutil.Parse(source, rust.GetLanguage())
	if err != nil {
		return ast.ParseResult{Errors: []ast.ParseError{{Message: err.Error()}}}
	}
	var result ast.ParseResult
	for j := 0; j < int(root.NamedChildCount()); j++ {
		n := root.NamedChild(j)
		switch n.Type() {
		case "use_declaration":
			result.Imports = append(result.Imports, importFrom(n, source))
		case "function_item":
			result.Entities = append(result.Entities, entityFromFunction(n, source, ""))
		case "struct_item":
			if name := identifierField(n, source, "type_identifier"); name != "" {
				result.Entities = append(result.Entities, ast.CodeEntity{
					Kind: ast.KindClass, Name: name, StartLine: tsutil.StartLine(n),
					EndLine: tsutil.EndLine(n), QualifiedName: name, Body: tsutil.Text(n, source),
				})
			}
		case "trait_item":
			if name := identifierField(n, source, "type_identifier"); name != "" {
				result.Entities = append(result.Entities, ast.CodeEntity{
					Kind: ast.KindClass, Name: name, StartLine: tsutil.StartLine(n),
					EndLine: tsutil.EndLine(n), QualifiedName: name, Body: tsutil.Text(n, source),
				})
			}
		case "enum_item":
			if name := identifierField(n, source, "type_identifier"); name != "" {
				result.Entities = append(result.Entities, ast.CodeEntity{
					Kind: ast.KindClass, Name: name, StartLine: tsutil.StartLine(n),
					EndLine: tsutil.EndLine(n), QualifiedName: name, Body: tsutil.Text(n, source),
				})
			}
		case "impl_item":
			typeName, _ := implNames(n, source)
			result.Entities = append(result.Entities, methodsOfImpl(n, source, typeName)...)
		}
	}
	if tsutil.HasError(root) {
		result.Errors = append(result.Errors, ast.ParseError{Message: "parse error recovered by tree-sitter in " + filePath})
	}
	return result
}

func importFrom(n *sitter.Node, src []byte) ast.ImportDecl {
	for j := 0; j < int(n.NamedChildCount()); j++ {
		c := n.NamedChild(j)
		if c.Type() != "visibility_modifier" {
			return ast.ImportDecl{Path: tsutil.Text(c, src), Line: tsutil.StartLine(n)}
		}
	}
	return ast.ImportDecl{Line: tsutil.StartLine(n)}
}

func identifierField(n *sitter.Node, src []byte, wantType string) string {
	for j := 0; j < int(n.ChildCount()); j++ {
		c := n.Child(j)
		if c.Type() == wantType {
			return tsutil.Text(c, src)
		}
	}
	return ""
}

func entityFromFunction(n *sitter.Node, src []byte, parent string) ast.CodeEntity {
	name := identifierField(n, src, "identifier")
	returnType := ""
	var params *sitter.Node
	for j := 0; j < int(n.ChildCount()); j++ {
		c := n.Child(j)
		switch c.Type() {
		case "parameters":
			params = c
		case "type_identifier", "generic_type", "reference_type", "tuple_type",
			"array_type", "primitive_type", "scoped_type_identifier", "unit_type":
			returnType = tsutil.Text(c, src)
		}
	}
	return ast.CodeEntity{
		Kind:          ast.KindFunction,
		Name:          name,
		StartLine:     tsutil.StartLine(n),
		EndLine:       tsutil.EndLine(n),
		Parameters:    paramList(params, src),
		ReturnType:    returnType,
		Parent:        parent,
		QualifiedName: qualify(parent, name),
		Body:          tsutil.Text(n, src),
	}
}

func paramList(params *sitter.Node, src []byte) []ast.Parameter {
	if params == nil {
		return nil
	}
	var out []ast.Parameter
	for j := 0; j < int(params.NamedChildCount()); j++ {
		p := params.NamedChild(j)
		if p.Type() != "parameter" && p.Type() != "self_parameter" {
			continue
		}
		name := ""
		typ := ""
		for k := 0; k < int(p.NamedChildCount()); k++ {
			c := p.NamedChild(k)
			if c.Type() == "identifier" {
				name = tsutil.Text(c, src)
			} else {
				typ = tsutil.Text(c, src)
			}
		}
		if name == "" {
			name = tsutil.Text(p, src)
		}
		out = append(out, ast.Parameter{Name: name, Type: typ})
	}
	return out
}

// implNames returns (typeName, traitName); traitName is empty for an
// inherent impl, populated only when the grammar's "for" keyword is present
// (CodeEagle's extractImpl distinguishes these the same way).
func implNames(n *sitter.Node, src []byte) (string, string) {
	var typeName, traitName string
	hasFor := false
	for j := 0; j < int(n.ChildCount()); j++ {
		c := n.Child(j)
		switch c.Type() {
		case "type_identifier", "generic_type", "scoped_type_identifier":
			if typeName == "" {
				typeName = tsutil.Text(c, src)
			} else if traitName == "" {
				traitName = typeName
				typeName = tsutil.Text(c, src)
			}
		default:
			if !c.IsNamed() && tsutil.Text(c, src) == "for" {
				hasFor = true
			}
		}
	}
	if !hasFor {
		traitName = ""
	}
	return typeName, traitName
}

func methodsOfImpl(n *sitter.Node, src []byte, typeName string) []ast.CodeEntity {
	var body *sitter.Node
	for j := 0; j < int(n.ChildCount()); j++ {
		if c := n.Child(j); c.Type() == "declaration_list" {
			body = c
			break
		}
	}
	if body == nil {
		return nil
	}
	var out []ast.CodeEntity
	for j := 0; j < int(body.NamedChildCount()); j++ {
		member := body.NamedChild(j)
		if member.Type() != "function_item" {
			continue
		}
		e := entityFromFunction(member, src, typeName)
		e.Kind = ast.KindMethod
		out = append(out, e)
	}
	return out
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// ExtractCallSites walks call_expression nodes, resolving identifier,
// field_expression (receiver.method()), and scoped_identifier (Type::method())
// call forms the way CodeEagle's checkFunctionCall does.
func (i *Inspector) ExtractCallSites(source []byte, filePath string) []ast.CallSite {
	root, err := tsutil.Parse(source, rust.GetLanguage())
	if err != nil {
		return nil
	}
	var sites []ast.CallSite
	var walk func(n *sitter.Node, impl, scope string)
	walk = func(n *sitter.Node, impl, scope string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "impl_item":
			impl, _ = implNames(n, source)
		case "function_item":
			scope = qualify(impl, identifierField(n, source, "identifier"))
		case "call_expression":
			sites = append(sites, callSiteFrom(n, source, filePath, scope))
		}
		for c := 0; c < int(n.NamedChildCount()); c++ {
			walk(n.NamedChild(c), impl, scope)
		}
	}
	walk(root, "", "")
	return sites
}

func callSiteFrom(n *sitter.Node, src []byte, filePath, scope string) ast.CallSite {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ast.CallSite{CallerFile: filePath, CallerEntity: scope, Line: tsutil.StartLine(n)}
	}
	var callee, receiver string
	kind := ast.ReceiverNone
	switch fn.Type() {
	case "identifier":
		callee = tsutil.Text(fn, src)
	case "field_expression":
		field := fn.ChildByFieldName("field")
		callee = tsutil.Text(field, src)
		receiver = tsutil.Text(fn.ChildByFieldName("value"), src)
		switch receiver {
		case "self":
			kind = ast.ReceiverSelf
		default:
			kind = ast.ReceiverVariable
		}
	case "scoped_identifier":
		text := tsutil.Text(fn, src)
		parts := strings.Split(text, "::")
		callee = parts[len(parts)-1]
		if len(parts) > 1 {
			receiver = parts[0]
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

// ExtractInheritances recovers `impl Trait for Type` as a DepImplement-bound
// relation (IsInterface: true); inherent `impl Type` blocks produce nothing,
// matching CodeEagle's extractImpl logic.
func (i *Inspector) ExtractInheritances(source []byte, filePath string) []ast.InheritanceRelation {
	root, err := tsutil.Parse(source, rust.GetLanguage())
	if err != nil {
		return nil
	}
	var rels []ast.InheritanceRelation
	tsutil.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "impl_item" {
			return true
		}
		typeName, traitName := implNames(n, source)
		if typeName != "" && traitName != "" {
			rels = append(rels, ast.InheritanceRelation{Child: typeName, Parent: traitName, IsInterface: true})
		}
		return true
	})
	return rels
}
