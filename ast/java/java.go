// Package java is the Java front end of the AST Surface, grounded on the
// teacher's inspector/java/declaration.go field-name usage (superclass,
// interfaces) and §4.1's Java mapping: method_declaration,
// class_declaration, interface_declaration→class, constructor_declaration→
// method.
package java

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/ast/internal/tsutil"
	"github.com/viant/rpgraph/graph"
)

// Inspector is the Java ast.Parser implementation.
type Inspector struct{}

// New returns a Java Parser.
func New() *Inspector { return &Inspector{} }

func (i *Inspector) Language() graph.Language { return graph.LangJava }

func (i *Inspector) Parse(source []byte, filePath string) ast.ParseResult {
	root, err := tsutil.Parse(source, java.GetLanguage())
	if err != nil {
		return ast.ParseResult{Errors: []ast.ParseError{{Message: err.Error()}}}
	}
	var result ast.ParseResult
	tsutil.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_declaration":
			result.Imports = append(result.Imports, importFrom(n, source))
			return false
		case "class_declaration", "interface_declaration", "enum_declaration":
			name := tsutil.FieldText(n, "name", source)
			result.Entities = append(result.Entities, ast.CodeEntity{
				Kind:          ast.KindClass,
				Name:          name,
				StartLine:     tsutil.StartLine(n),
				EndLine:       tsutil.EndLine(n),
				QualifiedName: name,
				Body:          tsutil.Text(n, source),
			})
			result.Entities = append(result.Entities, membersOf(n, source, name)...)
			return false
		}
		return true
	})
	if tsutil.HasError(root) {
		result.Errors = append(result.Errors, ast.ParseError{Message: "parse error recovered by tree-sitter in " + filePath})
	}
	return result
}

func importFrom(n *sitter.Node, src []byte) ast.ImportDecl {
	path := tsutil.Text(n, src)
	return ast.ImportDecl{Path: path, Line: tsutil.StartLine(n)}
}

func membersOf(classNode *sitter.Node, src []byte, className string) []ast.CodeEntity {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []ast.CodeEntity
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration":
			out = append(out, entityFromMethod(member, src, className, ast.KindMethod))
		case "constructor_declaration":
			e := entityFromMethod(member, src, className, ast.KindMethod)
			out = append(out, e)
		}
	}
	return out
}

func entityFromMethod(n *sitter.Node, src []byte, parent string, kind ast.EntityKind) ast.CodeEntity {
	name := tsutil.FieldText(n, "name", src)
	return ast.CodeEntity{
		Kind:          kind,
		Name:          name,
		StartLine:     tsutil.StartLine(n),
		EndLine:       tsutil.EndLine(n),
		Parameters:    paramList(n.ChildByFieldName("parameters"), src),
		ReturnType:    tsutil.FieldText(n, "type", src),
		Parent:        parent,
		QualifiedName: parent + "." + name,
		Body:          tsutil.Text(n, src),
	}
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

// ExtractCallSites walks method_invocation nodes, tracking enclosing
// class.method scope.
func (i *Inspector) ExtractCallSites(source []byte, filePath string) []ast.CallSite {
	root, err := tsutil.Parse(source, java.GetLanguage())
	if err != nil {
		return nil
	}
	var sites []ast.CallSite
	var walk func(n *sitter.Node, class, method string)
	walk = func(n *sitter.Node, class, method string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration":
			class = tsutil.FieldText(n, "name", source)
		case "method_declaration", "constructor_declaration":
			method = tsutil.FieldText(n, "name", source)
		case "method_invocation":
			sites = append(sites, callSiteFrom(n, source, filePath, class, method))
		}
		for c := 0; c < int(n.ChildCount()); c++ {
			walk(n.Child(c), class, method)
		}
	}
	walk(root, "", "")
	return sites
}

func callSiteFrom(n *sitter.Node, src []byte, filePath, class, method string) ast.CallSite {
	name := tsutil.FieldText(n, "name", src)
	object := n.ChildByFieldName("object")
	receiver := tsutil.Text(object, src)
	kind := ast.ReceiverNone
	switch receiver {
	case "":
		kind = ast.ReceiverNone
	case "this":
		kind = ast.ReceiverSelf
	case "super":
		kind = ast.ReceiverSuper
	default:
		kind = ast.ReceiverVariable
	}
	scope := method
	if class != "" {
		scope = class + "." + method
	}
	return ast.CallSite{
		CalleeSymbol: name,
		CallerFile:   filePath,
		CallerEntity: scope,
		Line:         tsutil.StartLine(n),
		Receiver:     receiver,
		ReceiverKind: kind,
	}
}

// ExtractInheritances recovers `extends`/`implements` relations using the
// grammar's "superclass"/"interfaces" fields.
func (i *Inspector) ExtractInheritances(source []byte, filePath string) []ast.InheritanceRelation {
	root, err := tsutil.Parse(source, java.GetLanguage())
	if err != nil {
		return nil
	}
	var rels []ast.InheritanceRelation
	tsutil.Walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "class_declaration":
			name := tsutil.FieldText(n, "name", source)
			if sup := n.ChildByFieldName("superclass"); sup != nil {
				if names := typeList(sup, source); len(names) > 0 {
					rels = append(rels, ast.InheritanceRelation{Child: name, Parent: names[0]})
				}
			}
			if ifaces := n.ChildByFieldName("interfaces"); ifaces != nil {
				for _, ifaceName := range typeList(ifaces, source) {
					rels = append(rels, ast.InheritanceRelation{Child: name, Parent: ifaceName, IsInterface: true})
				}
			}
		case "interface_declaration":
			name := tsutil.FieldText(n, "name", source)
			if ext := n.ChildByFieldName("interfaces"); ext != nil {
				for _, ifaceName := range typeList(ext, source) {
					rels = append(rels, ast.InheritanceRelation{Child: name, Parent: ifaceName, IsInterface: true})
				}
			}
		}
		return true
	})
	return rels
}

func typeList(n *sitter.Node, src []byte) []string {
	var out []string
	tsutil.Walk(n, func(c *sitter.Node) bool {
		if c.Type() == "type_identifier" || c.Type() == "generic_type" || c.Type() == "scoped_type_identifier" {
			out = append(out, simpleTypeName(tsutil.Text(c, src)))
			return false
		}
		return true
	})
	return out
}

func simpleTypeName(name string) string {
	return name
}
