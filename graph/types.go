// Package graph defines the Repository Planning Graph substrate: the
// polymorphic node/edge model (§3 of the specification), the abstract Store
// surface two backends must conform to (§4.3), and the invariants that hold
// across every conforming implementation.
//
// Nodes and edges are modeled as tagged variants over a shared struct rather
// than through an interface hierarchy: a Node carries a Kind discriminator
// and only populates the fields that variant uses, the same shape the
// teacher inspector uses for its Type/Field/Function structs.
package graph

import "sort"

// NodeKind discriminates the two Node variants.
type NodeKind string

const (
	HighLevel NodeKind = "high_level"
	LowLevel  NodeKind = "low_level"
)

// EntityKind enumerates the StructuralMetadata.EntityType values.
type EntityKind string

const (
	EntityModule   EntityKind = "module"
	EntityFile     EntityKind = "file"
	EntityClass    EntityKind = "class"
	EntityFunction EntityKind = "function"
	EntityMethod   EntityKind = "method"
)

// Language enumerates the six languages the AST Surface recognizes.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangGo         Language = "go"
	LangJava       Language = "java"
)

// SemanticFeature is the behavioral description attached to every node.
type SemanticFeature struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	SubFeatures []string `json:"subFeatures,omitempty"`
}

// StructuralMetadata is the file/line/entity-kind metadata attached to
// LowLevel nodes (required) and HighLevel nodes (optional, populated by the
// artifact grounder).
type StructuralMetadata struct {
	EntityType    EntityKind     `json:"entityType"`
	Path          string         `json:"path,omitempty"`
	QualifiedName string         `json:"qualifiedName,omitempty"`
	Language      Language       `json:"language,omitempty"`
	StartLine     int            `json:"startLine,omitempty"`
	EndLine       int            `json:"endLine,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Paths returns metadata.extra.paths (the additional LCAs of a multi-rooted
// HighLevel node), sorted, or nil when absent.
func (m *StructuralMetadata) Paths() []string {
	if m == nil || m.Extra == nil {
		return nil
	}
	raw, ok := m.Extra["paths"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := append([]string(nil), v...)
		sort.Strings(out)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		sort.Strings(out)
		return out
	}
	return nil
}

// SetPaths writes metadata.extra.paths, creating Extra if needed and
// preserving any other pre-existing entries (invariant: grounding preserves
// pre-existing metadata.extra entries).
func (m *StructuralMetadata) SetPaths(paths []string) {
	if m.Extra == nil {
		m.Extra = map[string]any{}
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	m.Extra["paths"] = sorted
}

// Node is the polymorphic node type. Kind discriminates the variant:
//   - HighLevel: Metadata and DirectoryPath are optional.
//   - LowLevel: Metadata is required; SourceCode is optional.
type Node struct {
	ID            string              `json:"id"`
	Kind          NodeKind            `json:"type"`
	Feature       SemanticFeature     `json:"feature"`
	Metadata      *StructuralMetadata `json:"metadata,omitempty"`
	DirectoryPath string              `json:"directoryPath,omitempty"`
	SourceCode    string              `json:"sourceCode,omitempty"`
}

// IsHighLevel reports whether n is the HighLevel variant.
func (n *Node) IsHighLevel() bool { return n.Kind == HighLevel }

// IsLowLevel reports whether n is the LowLevel variant.
func (n *Node) IsLowLevel() bool { return n.Kind == LowLevel }

// EdgeKind discriminates the two disjoint edge families.
type EdgeKind string

const (
	Functional EdgeKind = "functional"
	Dependency EdgeKind = "dependency"
)

// DependencyType enumerates the relations a Dependency edge may carry.
type DependencyType string

const (
	DepImport    DependencyType = "import"
	DepCall      DependencyType = "call"
	DepInherit   DependencyType = "inherit"
	DepImplement DependencyType = "implement"
	DepUse       DependencyType = "use"
)

// Edge is the polymorphic edge type, keyed uniquely by (Source, Target, Kind).
//   - Functional: Level and SiblingOrder are optional, Source is an ancestor.
//   - Dependency: DependencyType is required, IsRuntime and Line optional.
type Edge struct {
	Source         string         `json:"source"`
	Target         string         `json:"target"`
	Kind           EdgeKind       `json:"type"`
	Level          *int           `json:"level,omitempty"`
	SiblingOrder   *int           `json:"siblingOrder,omitempty"`
	DependencyType DependencyType `json:"dependencyType,omitempty"`
	IsRuntime      *bool          `json:"isRuntime,omitempty"`
	Line           *int           `json:"line,omitempty"`
}

// Key returns the (source,target,type) identity tuple of the edge.
func (e Edge) Key() EdgeKey { return EdgeKey{Source: e.Source, Target: e.Target, Kind: e.Kind} }

// EdgeKey is the unique identity of an edge.
type EdgeKey struct {
	Source string
	Target string
	Kind   EdgeKind
}

// Config describes an RPG instance (§3).
type Config struct {
	Name        string `json:"name" yaml:"name"`
	RootPath    string `json:"rootPath,omitempty" yaml:"rootPath,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
