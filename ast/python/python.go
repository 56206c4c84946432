// Package python is the Python front end of the AST Surface. The teacher
// never parsed Python; this front end is grounded instead on CodeEagle's
// internal/parser/python package (decorated_definition unwrapping,
// self/cls receiver detection, class_definition bases via argument_list),
// adapted to the shared ast.Parser vocabulary used by every other language
// front end in this module.
package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/ast/internal/tsutil"
	"github.com/viant/rpgraph/graph"
)

// Inspector is the Python ast.Parser implementation.
type Inspector struct{}

// New returns a Python Parser.
func New() *Inspector { return &Inspector{} }

func (i *Inspector) Language() graph.Language { return graph.LangPython }

func (i *Inspector) Parse(source []byte, filePath string) ast.ParseResult {
	root, err := tsutil.Parse(source, python.GetLanguage())
	if err != nil {
		return ast.ParseResult{Errors: []ast.ParseError{{Message: err.Error()}}}
	}
	var result ast.ParseResult
	for j := 0; j < int(root.NamedChildCount()); j++ {
		n := root.NamedChild(j)
		switch n.Type() {
		case "import_statement":
			result.Imports = append(result.Imports, importFrom(n, source))
		case "import_from_statement":
			if imp, ok := fromImport(n, source); ok {
				result.Imports = append(result.Imports, imp)
			}
		case "class_definition":
			result.Entities = append(result.Entities, entityFromClass(n, source))
			result.Entities = append(result.Entities, methodsOf(n, source)...)
		case "function_definition", "decorated_definition":
			if e, ok := functionOrDecorated(n, source, ""); ok {
				result.Entities = append(result.Entities, e)
			}
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
		if c.Type() == "dotted_name" || c.Type() == "aliased_import" {
			name := tsutil.Text(c, src)
			if c.Type() == "aliased_import" && c.NamedChildCount() > 0 {
				name = tsutil.Text(c.NamedChild(0), src)
			}
			return ast.ImportDecl{Path: name, Line: tsutil.StartLine(n)}
		}
	}
	return ast.ImportDecl{Line: tsutil.StartLine(n)}
}

func fromImport(n *sitter.Node, src []byte) (ast.ImportDecl, bool) {
	for j := 0; j < int(n.ChildCount()); j++ {
		c := n.Child(j)
		if c.Type() == "dotted_name" || c.Type() == "relative_import" {
			return ast.ImportDecl{Path: tsutil.Text(c, src), Line: tsutil.StartLine(n)}, true
		}
	}
	return ast.ImportDecl{}, false
}

func entityFromClass(n *sitter.Node, src []byte) ast.CodeEntity {
	name := ""
	for j := 0; j < int(n.NamedChildCount()); j++ {
		c := n.NamedChild(j)
		if c.Type() == "identifier" {
			name = tsutil.Text(c, src)
			break
		}
	}
	return ast.CodeEntity{
		Kind:          ast.KindClass,
		Name:          name,
		StartLine:     tsutil.StartLine(n),
		EndLine:       tsutil.EndLine(n),
		QualifiedName: name,
		Body:          tsutil.Text(n, src),
	}
}

func methodsOf(classNode *sitter.Node, src []byte) []ast.CodeEntity {
	className := ""
	var body *sitter.Node
	for j := 0; j < int(classNode.NamedChildCount()); j++ {
		c := classNode.NamedChild(j)
		switch c.Type() {
		case "identifier":
			className = tsutil.Text(c, src)
		case "block":
			body = c
		}
	}
	if body == nil {
		return nil
	}
	var out []ast.CodeEntity
	for j := 0; j < int(body.NamedChildCount()); j++ {
		member := body.NamedChild(j)
		if member.Type() != "function_definition" && member.Type() != "decorated_definition" {
			continue
		}
		if e, ok := functionOrDecorated(member, src, className); ok {
			out = append(out, e)
		}
	}
	return out
}

func functionOrDecorated(n *sitter.Node, src []byte, className string) (ast.CodeEntity, bool) {
	funcNode := n
	if n.Type() == "decorated_definition" {
		funcNode = nil
		for j := 0; j < int(n.NamedChildCount()); j++ {
			c := n.NamedChild(j)
			if c.Type() == "function_definition" {
				funcNode = c
				break
			}
		}
		if funcNode == nil {
			return ast.CodeEntity{}, false
		}
	}
	name := ""
	var params *sitter.Node
	returnType := ""
	for j := 0; j < int(funcNode.NamedChildCount()); j++ {
		c := funcNode.NamedChild(j)
		switch c.Type() {
		case "identifier":
			name = tsutil.Text(c, src)
		case "parameters":
			params = c
		case "type":
			returnType = tsutil.Text(c, src)
		}
	}
	if name == "" {
		return ast.CodeEntity{}, false
	}
	kind := ast.KindFunction
	if className != "" {
		kind = ast.KindMethod
	}
	return ast.CodeEntity{
		Kind:          kind,
		Name:          name,
		StartLine:     tsutil.StartLine(n),
		EndLine:       tsutil.EndLine(n),
		Parameters:    paramList(params, src),
		ReturnType:    returnType,
		Parent:        className,
		QualifiedName: qualify(className, name),
		Body:          tsutil.Text(n, src),
	}, true
}

func paramList(params *sitter.Node, src []byte) []ast.Parameter {
	if params == nil {
		return nil
	}
	var out []ast.Parameter
	for j := 0; j < int(params.NamedChildCount()); j++ {
		p := params.NamedChild(j)
		switch p.Type() {
		case "identifier":
			out = append(out, ast.Parameter{Name: tsutil.Text(p, src)})
		case "typed_parameter":
			name := ""
			typ := ""
			for k := 0; k < int(p.NamedChildCount()); k++ {
				c := p.NamedChild(k)
				if c.Type() == "identifier" {
					name = tsutil.Text(c, src)
				} else if c.Type() == "type" {
					typ = tsutil.Text(c, src)
				}
			}
			out = append(out, ast.Parameter{Name: name, Type: typ})
		}
	}
	return out
}

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// ExtractCallSites walks call nodes, recognizing self/cls receivers the way
// CodeEagle's checkFunctionCall distinguishes self/cls method calls from
// import-qualified and same-file calls.
func (i *Inspector) ExtractCallSites(source []byte, filePath string) []ast.CallSite {
	root, err := tsutil.Parse(source, python.GetLanguage())
	if err != nil {
		return nil
	}
	var sites []ast.CallSite
	var walk func(n *sitter.Node, class, fn string)
	walk = func(n *sitter.Node, class, fn string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "class_definition":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				if c := n.NamedChild(j); c.Type() == "identifier" {
					class = tsutil.Text(c, source)
					break
				}
			}
		case "function_definition":
			for j := 0; j < int(n.NamedChildCount()); j++ {
				if c := n.NamedChild(j); c.Type() == "identifier" {
					fn = tsutil.Text(c, source)
					break
				}
			}
		case "call":
			sites = append(sites, callSiteFrom(n, source, filePath, qualify(class, fn)))
		}
		for c := 0; c < int(n.NamedChildCount()); c++ {
			walk(n.NamedChild(c), class, fn)
		}
	}
	walk(root, "", "")
	return sites
}

func callSiteFrom(n *sitter.Node, src []byte, filePath, scope string) ast.CallSite {
	if n.NamedChildCount() == 0 {
		return ast.CallSite{CallerFile: filePath, CallerEntity: scope, Line: tsutil.StartLine(n)}
	}
	callee := n.NamedChild(0)
	name := tsutil.Text(callee, src)
	receiver := ""
	calleeSymbol := name
	kind := ast.ReceiverNone
	if callee.Type() == "attribute" {
		dot := strings.Index(name, ".")
		if dot >= 0 {
			receiver = name[:dot]
			calleeSymbol = name[dot+1:]
			switch receiver {
			case "self":
				kind = ast.ReceiverSelf
			case "cls":
				kind = ast.ReceiverSelf
			default:
				kind = ast.ReceiverVariable
			}
		}
	}
	return ast.CallSite{
		CalleeSymbol: calleeSymbol,
		CallerFile:   filePath,
		CallerEntity: scope,
		Line:         tsutil.StartLine(n),
		Receiver:     receiver,
		ReceiverKind: kind,
	}
}

// ExtractInheritances recovers base classes from the argument_list following
// a class name, CodeEagle's extractBaseClasses.
func (i *Inspector) ExtractInheritances(source []byte, filePath string) []ast.InheritanceRelation {
	root, err := tsutil.Parse(source, python.GetLanguage())
	if err != nil {
		return nil
	}
	var rels []ast.InheritanceRelation
	tsutil.Walk(root, func(n *sitter.Node) bool {
		if n.Type() != "class_definition" {
			return true
		}
		name := ""
		var bases *sitter.Node
		for j := 0; j < int(n.NamedChildCount()); j++ {
			c := n.NamedChild(j)
			switch c.Type() {
			case "identifier":
				name = tsutil.Text(c, source)
			case "argument_list":
				bases = c
			}
		}
		if bases == nil {
			return true
		}
		for j := 0; j < int(bases.NamedChildCount()); j++ {
			base := tsutil.Text(bases.NamedChild(j), source)
			if base == "" {
				continue
			}
			rels = append(rels, ast.InheritanceRelation{Child: name, Parent: base})
		}
		return true
	})
	return rels
}
