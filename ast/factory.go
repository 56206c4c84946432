package ast

import (
	"path/filepath"
	"strings"

	"github.com/viant/rpgraph/ast/golang"
	"github.com/viant/rpgraph/ast/java"
	"github.com/viant/rpgraph/ast/jsx"
	"github.com/viant/rpgraph/ast/python"
	"github.com/viant/rpgraph/ast/rust"
	"github.com/viant/rpgraph/graph"
)

// Factory dispatches to the appropriate language Parser based on file
// extension, the same role the teacher's inspector.Factory plays for its
// three front ends, generalized here to all six languages.
type Factory struct {
	parsers map[graph.Language]Parser
}

// NewFactory builds a Factory with one Parser per supported language.
func NewFactory() *Factory {
	return &Factory{
		parsers: map[graph.Language]Parser{
			graph.LangGo:         golang.New(),
			graph.LangJava:       java.New(),
			graph.LangTypeScript: jsx.New(graph.LangTypeScript),
			graph.LangJavaScript: jsx.New(graph.LangJavaScript),
			graph.LangPython:     python.New(),
			graph.LangRust:       rust.New(),
		},
	}
}

// DetectLanguage maps a file extension to a Language; ok is false for
// unrecognized extensions (language detection is by extension alone, §4.1).
func DetectLanguage(path string) (graph.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return graph.LangGo, true
	case ".java":
		return graph.LangJava, true
	case ".ts", ".tsx":
		return graph.LangTypeScript, true
	case ".js", ".jsx", ".mjs", ".cjs":
		return graph.LangJavaScript, true
	case ".py":
		return graph.LangPython, true
	case ".rs":
		return graph.LangRust, true
	default:
		return "", false
	}
}

// Get returns the Parser registered for language.
func (f *Factory) Get(language graph.Language) (Parser, bool) {
	p, ok := f.parsers[language]
	return p, ok
}

// ParserFor returns the Parser appropriate for path's extension.
func (f *Factory) ParserFor(path string) (Parser, bool) {
	lang, ok := DetectLanguage(path)
	if !ok {
		return nil, false
	}
	return f.Get(lang)
}
