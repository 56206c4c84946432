package graph

import "context"

// Direction constrains a traversal or edge query to outgoing, incoming, or
// both directions.
type Direction string

const (
	DirOut  Direction = "out"
	DirIn   Direction = "in"
	DirBoth Direction = "both"
)

// TraverseEdgeType selects which edge family(ies) a deep traversal follows.
type TraverseEdgeType string

const (
	TraverseFunctional TraverseEdgeType = "functional"
	TraverseDependency TraverseEdgeType = "dependency"
	TraverseBoth       TraverseEdgeType = "both"
)

// NodeFilter narrows a getNodes query. A nil/zero field is unconstrained.
type NodeFilter struct {
	Kind    NodeKind
	Path    string
	HasKind bool
}

// EdgeFilter narrows a getEdges query.
type EdgeFilter struct {
	Kind           EdgeKind
	DependencyType DependencyType
	Source         string
	Target         string
	HasKind        bool
	HasDepType     bool
}

// TraverseOptions configures Store.Traverse.
type TraverseOptions struct {
	StartNode  string
	EdgeType   TraverseEdgeType
	Direction  Direction
	MaxDepth   int
	TypeFilter DependencyType // optional, only applies when EdgeType includes dependency
}

// TraverseResult is the bounded BFS/DFS result of Store.Traverse.
type TraverseResult struct {
	Nodes          []*Node
	Edges          []*Edge
	MaxDepthReached int
}

// SearchHit is one match from a feature or path search.
type SearchHit struct {
	Node  *Node
	Score float64
}

// Document is the canonical serialized graph record (§6).
type Document struct {
	Version string  `json:"version"`
	Config  Config  `json:"config"`
	Nodes   []*Node `json:"nodes"`
	Edges   []*Edge `json:"edges"`
}

// SchemaVersion is the canonical serialization format version (§6).
const SchemaVersion = "1.0.0"

// Store is the abstract Graph Store surface (§4.3). Two interchangeable
// implementations conform to it: an in-memory native-graph backend
// (graph/memstore, the required ephemeral test backend) and a relational
// backend with recursive-CTE traversal and full-text search
// (graph/pgstore, backed by Postgres + pgvector).
//
// All write operations are idempotent with respect to node id and edge
// (source,target,type) identity. Readers may proceed concurrently with
// other readers but observe a consistent snapshot during a single
// traversal-producing call.
type Store interface {
	// Close releases any resources (file handles, connections) held open.
	Close(ctx context.Context) error

	// AddNode inserts or replaces a node. Idempotent on Node.ID.
	AddNode(ctx context.Context, n *Node) error
	// GetNode returns NotFoundError when id is absent.
	GetNode(ctx context.Context, id string) (*Node, error)
	// UpdateNode applies patch to the node named by id, merging into
	// Metadata.Extra and replacing scalar metadata fields atomically. The
	// in-memory backend deep-merges Feature (keywords and sub-features are
	// unioned, an empty description keeps the old one); graph/pgstore
	// replaces Feature whole.
	UpdateNode(ctx context.Context, id string, patch NodePatch) error
	// RemoveNode deletes a node and cascades to incident edges. Idempotent:
	// removing an absent id is a no-op.
	RemoveNode(ctx context.Context, id string) error
	// GetNodes lists nodes matching filter (zero value matches all).
	GetNodes(ctx context.Context, filter NodeFilter) ([]*Node, error)

	// AddEdge inserts an edge; rejects duplicates by (source,target,type)
	// identity by treating the call as a no-op (idempotent).
	AddEdge(ctx context.Context, e *Edge) error
	// RemoveEdge deletes the edge with the given identity, if present.
	RemoveEdge(ctx context.Context, key EdgeKey) error
	// GetEdges lists edges matching filter (zero value matches all).
	GetEdges(ctx context.Context, filter EdgeFilter) ([]*Edge, error)

	// GetChildren returns nodes reached by one outgoing Functional edge.
	GetChildren(ctx context.Context, id string) ([]*Node, error)
	// GetParent returns the node reached by the single incoming Functional
	// edge, or nil when id is a root.
	GetParent(ctx context.Context, id string) (*Node, error)
	// GetOutEdges returns outgoing edges, optionally filtered by kind.
	GetOutEdges(ctx context.Context, id string, kind EdgeKind) ([]*Edge, error)
	// GetInEdges returns incoming edges, optionally filtered by kind.
	GetInEdges(ctx context.Context, id string, kind EdgeKind) ([]*Edge, error)
	// GetDependencies returns nodes reached by one outgoing Dependency edge.
	GetDependencies(ctx context.Context, id string) ([]*Node, error)
	// GetDependents returns nodes reached by one incoming Dependency edge.
	GetDependents(ctx context.Context, id string) ([]*Node, error)

	// Traverse performs a bounded multi-edge BFS from opts.StartNode.
	Traverse(ctx context.Context, opts TraverseOptions) (*TraverseResult, error)

	// SearchByFeature runs a free-text query against node features. When
	// scopes is non-empty, candidates are restricted to the union of the
	// BFS-Functional subtrees rooted at the given ids.
	SearchByFeature(ctx context.Context, query string, scopes []string) ([]SearchHit, error)
	// SearchByPath matches glob against metadata.path and every entry of
	// metadata.extra.paths (* = one segment, ** = zero or more segments).
	SearchByPath(ctx context.Context, glob string) ([]*Node, error)

	// TopologicalOrder returns a post-order over Dependency edges: sources
	// are yielded before their dependencies.
	TopologicalOrder(ctx context.Context) ([]*Node, error)

	// ExportJSON serializes the whole graph using the canonical schema.
	ExportJSON(ctx context.Context, cfg Config) (*Document, error)
	// ImportJSON replaces the store contents with doc's nodes and edges,
	// wrapped in a single transaction.
	ImportJSON(ctx context.Context, doc *Document) error
}

// NodePatch is a partial update applied by UpdateNode. Nil fields are left
// untouched; ExtraPatch is merged key by key into metadata.extra, and how
// Feature is applied depends on the backend (see Store.UpdateNode).
type NodePatch struct {
	Feature       *SemanticFeature
	EntityType    *EntityKind
	Path          *string
	QualifiedName *string
	Language      *Language
	StartLine     *int
	EndLine       *int
	ExtraPatch    map[string]any
	DirectoryPath *string
	SourceCode    *string
}
