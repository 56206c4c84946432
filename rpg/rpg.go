// Package rpg is the typed façade over graph.Store (C4): constructors and
// predicates that validate the variant shape of nodes/edges before
// delegating to the store, so callers never hand-build a graph.Node/Edge
// with an inconsistent Kind/field combination. Modeled on the teacher's
// inspector.Factory, which hides backend-selection behind a small typed
// surface.
package rpg

import (
	"context"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// RPG wraps a graph.Store with the typed constructors/predicates of §4.4.
type RPG struct {
	Store  graph.Store
	Config graph.Config
}

// New wraps an existing store with the façade.
func New(store graph.Store, cfg graph.Config) *RPG {
	return &RPG{Store: store, Config: cfg}
}

// HighLevelArgs builds a HighLevel node.
type HighLevelArgs struct {
	ID            string
	Feature       graph.SemanticFeature
	Metadata      *graph.StructuralMetadata
	DirectoryPath string
}

// AddHighLevelNode validates and inserts a HighLevel node.
func (r *RPG) AddHighLevelNode(ctx context.Context, args HighLevelArgs) (*graph.Node, error) {
	if args.ID == "" {
		return nil, rpgerr.Validation("high-level node requires an id")
	}
	if args.Feature.Description == "" {
		return nil, rpgerr.Validation("high-level node %s requires a non-empty feature description", args.ID)
	}
	n := &graph.Node{
		ID:            args.ID,
		Kind:          graph.HighLevel,
		Feature:       args.Feature,
		Metadata:      args.Metadata,
		DirectoryPath: args.DirectoryPath,
	}
	if err := r.Store.AddNode(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// LowLevelArgs builds a LowLevel node.
type LowLevelArgs struct {
	ID         string
	Feature    graph.SemanticFeature
	Metadata   graph.StructuralMetadata
	SourceCode string
}

// AddLowLevelNode validates and inserts a LowLevel node. StructuralMetadata
// is required (invariant 4).
func (r *RPG) AddLowLevelNode(ctx context.Context, args LowLevelArgs) (*graph.Node, error) {
	if args.ID == "" {
		return nil, rpgerr.Validation("low-level node requires an id")
	}
	if args.Metadata.Path == "" {
		return nil, rpgerr.Validation("low-level node %s requires metadata.path", args.ID)
	}
	if args.Feature.Description == "" {
		return nil, rpgerr.Validation("low-level node %s requires a non-empty feature description", args.ID)
	}
	md := args.Metadata
	n := &graph.Node{
		ID:         args.ID,
		Kind:       graph.LowLevel,
		Feature:    args.Feature,
		Metadata:   &md,
		SourceCode: args.SourceCode,
	}
	if err := r.Store.AddNode(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// FunctionalEdgeArgs builds a Functional edge.
type FunctionalEdgeArgs struct {
	Source       string
	Target       string
	Level        *int
	SiblingOrder *int
}

// AddFunctionalEdge validates and inserts a Functional edge. Source must be
// an ancestor of Target in the intended hierarchy (the store enforces the
// forest invariant: single parent, no cycles).
func (r *RPG) AddFunctionalEdge(ctx context.Context, args FunctionalEdgeArgs) error {
	if args.Source == "" || args.Target == "" {
		return rpgerr.Validation("functional edge requires source and target")
	}
	e := &graph.Edge{
		Source:       args.Source,
		Target:       args.Target,
		Kind:         graph.Functional,
		Level:        args.Level,
		SiblingOrder: args.SiblingOrder,
	}
	return r.Store.AddEdge(ctx, e)
}

// DependencyEdgeArgs builds a Dependency edge.
type DependencyEdgeArgs struct {
	Source         string
	Target         string
	DependencyType graph.DependencyType
	IsRuntime      *bool
	Line           *int
}

// AddDependencyEdge validates and inserts a Dependency edge.
func (r *RPG) AddDependencyEdge(ctx context.Context, args DependencyEdgeArgs) error {
	if args.Source == "" || args.Target == "" {
		return rpgerr.Validation("dependency edge requires source and target")
	}
	switch args.DependencyType {
	case graph.DepImport, graph.DepCall, graph.DepInherit, graph.DepImplement, graph.DepUse:
	default:
		return rpgerr.Validation("unknown dependency type: %s", args.DependencyType)
	}
	e := &graph.Edge{
		Source:         args.Source,
		Target:         args.Target,
		Kind:           graph.Dependency,
		DependencyType: args.DependencyType,
		IsRuntime:      args.IsRuntime,
		Line:           args.Line,
	}
	return r.Store.AddEdge(ctx, e)
}

// IsHighLevel narrows a node to the HighLevel variant.
func IsHighLevel(n *graph.Node) bool { return n != nil && n.Kind == graph.HighLevel }

// IsLowLevel narrows a node to the LowLevel variant.
func IsLowLevel(n *graph.Node) bool { return n != nil && n.Kind == graph.LowLevel }

// IsFunctional narrows an edge to the Functional variant.
func IsFunctional(e *graph.Edge) bool { return e != nil && e.Kind == graph.Functional }

// IsDependency narrows an edge to the Dependency variant.
func IsDependency(e *graph.Edge) bool { return e != nil && e.Kind == graph.Dependency }
