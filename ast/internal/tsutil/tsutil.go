// Package tsutil collects the small tree-sitter walking helpers shared by
// every ast/<language> front end, factored out of the teacher's
// inspector/golang/inspector_tree_sitter.go pattern (parse once into a
// *sitter.Tree, then walk with ChildByFieldName/Child/NamedChild).
package tsutil

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse runs language's grammar over src and returns the root node of the
// resulting tree. Parser failures never panic: tree-sitter's error recovery
// still yields a (possibly partial) tree with ERROR nodes, which callers can
// inspect via HasError.
func Parse(src []byte, language *sitter.Language) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, err
	}
	return tree.RootNode(), nil
}

// Text returns the source slice spanned by n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// StartLine returns n's 1-indexed start line.
func StartLine(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPoint().Row) + 1
}

// EndLine returns n's 1-indexed end line.
func EndLine(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.EndPoint().Row) + 1
}

// HasError reports whether the subtree rooted at n contains a tree-sitter
// ERROR node, the signal used to populate ParseResult.Errors without
// aborting the pipeline.
func HasError(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.IsError() || n.IsMissing() {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if HasError(n.Child(i)) {
			return true
		}
	}
	return false
}

// Walk calls visit for n and every descendant, depth-first, pre-order.
// Returning false from visit skips n's children.
func Walk(n *sitter.Node, visit func(n *sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}

// FieldText returns the text of n's child in the named grammar field.
func FieldText(n *sitter.Node, field string, src []byte) string {
	return Text(n.ChildByFieldName(field), src)
}
