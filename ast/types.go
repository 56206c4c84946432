// Package ast is the AST Surface (C1): given source text, a language, and a
// file path it yields entities, imports, call sites, and inheritance
// relations recovered from a tree-sitter parse. Grounded on the teacher's
// per-language inspector.{golang,java,jsx} front ends, generalized to a
// shared entity/call-site/inheritance vocabulary so every language family
// (including the two the teacher never covered, Python and Rust) speaks the
// same surface instead of each exposing a bespoke struct set.
package ast

import "github.com/viant/rpgraph/graph"

// EntityKind mirrors graph.EntityKind plus "variable" and "import", the two
// CodeEntity kinds that never become LowLevel nodes on their own but still
// participate in symbol-table construction (C8).
type EntityKind string

const (
	KindFunction EntityKind = "function"
	KindClass    EntityKind = "class"
	KindMethod   EntityKind = "method"
	KindVariable EntityKind = "variable"
	KindImport   EntityKind = "import"
)

// Parameter is a function/method parameter or result.
type Parameter struct {
	Name string
	Type string
}

// CodeEntity is one declaration recovered from a parse (§4.1).
type CodeEntity struct {
	Kind       EntityKind
	Name       string
	StartLine  int
	EndLine    int
	Parameters []Parameter
	ReturnType string
	// Parent is the dot-qualified enclosing context (e.g. a class name for a
	// method), empty for file-scope entities.
	Parent string
	// QualifiedName is Parent+"."+Name when Parent is set, else Name.
	QualifiedName string
	Body          string
}

// ImportDecl is one import/use/require statement recovered from a parse.
type ImportDecl struct {
	Alias string
	Path  string
	Line  int
}

// ParseError is one recoverable per-entity parser diagnostic; a parser
// failure never aborts the pipeline (§4.1).
type ParseError struct {
	Message string
	Line    int
}

func (e ParseError) Error() string { return e.Message }

// ParseResult is the AST Surface's parse output.
type ParseResult struct {
	Entities []CodeEntity
	Imports  []ImportDecl
	Errors   []ParseError
}

// ReceiverKind classifies the receiver expression of a call site.
type ReceiverKind string

const (
	ReceiverNone     ReceiverKind = "none"
	ReceiverSelf     ReceiverKind = "self"
	ReceiverSuper    ReceiverKind = "super"
	ReceiverVariable ReceiverKind = "variable"
)

// CallSite is one call expression recovered from a parse (§4.1).
type CallSite struct {
	CalleeSymbol  string
	CallerFile    string
	CallerEntity  string // dot-qualified context, e.g. "Class.method"
	Line          int
	Receiver      string
	ReceiverKind  ReceiverKind
	QualifiedName string
}

// InheritanceRelation is one class/interface relation recovered from a parse.
type InheritanceRelation struct {
	Child       string
	Parent      string
	IsInterface bool // true when the relation should become a DepImplement edge
}

// Parser is the AST Surface contract every language front end implements.
type Parser interface {
	// Parse recovers entities and imports from source. It never returns an
	// error — parser failure is non-fatal per file: when the parser itself
	// fails the ParseResult is empty apart from Errors, and when tree-sitter
	// recovers from malformed input the ParseResult keeps whatever entities
	// it recovered and carries a non-empty Errors.
	Parse(source []byte, filePath string) ParseResult
	// ExtractCallSites recovers call expressions, tracking enclosing
	// class/function scope to populate CallSite.CallerEntity.
	ExtractCallSites(source []byte, filePath string) []CallSite
	// ExtractInheritances recovers class/interface extends-implements
	// relations.
	ExtractInheritances(source []byte, filePath string) []InheritanceRelation
	// Language identifies which graph.Language this parser serves.
	Language() graph.Language
}
