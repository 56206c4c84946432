// Package memstore is the required in-memory, ephemeral Graph Store backend
// (§9 "a memory backend is required for tests"). It also serves as the
// reference "native-graph" implementation of graph.Store: traversal and
// search are expressed directly over adjacency maps instead of recursive
// SQL, the way github.com/siherrmann/grapher models an in-memory graph with
// BFS/DFS traversal.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// Store is a single-writer, concurrent-reader in-memory graph.Store.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*graph.Node
	// edges keyed by identity for O(1) de-dup; out/in index edges by source
	// and target node id for fast traversal.
	edges map[graph.EdgeKey]*graph.Edge
	out   map[string][]*graph.Edge
	in    map[string][]*graph.Edge
}

// Open returns a new empty in-memory store. path is accepted for symmetry
// with on-disk backends but ignored; "memory" is the conventional value.
func Open(_ string) (*Store, error) {
	return &Store{
		nodes: map[string]*graph.Node{},
		edges: map[graph.EdgeKey]*graph.Edge{},
		out:   map[string][]*graph.Edge{},
		in:    map[string][]*graph.Edge{},
	}, nil
}

func (s *Store) Close(context.Context) error { return nil }

func cloneNode(n *graph.Node) *graph.Node {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Metadata != nil {
		m := *n.Metadata
		if n.Metadata.Extra != nil {
			m.Extra = make(map[string]any, len(n.Metadata.Extra))
			for k, v := range n.Metadata.Extra {
				m.Extra[k] = v
			}
		}
		cp.Metadata = &m
	}
	cp.Feature.Keywords = append([]string(nil), n.Feature.Keywords...)
	cp.Feature.SubFeatures = append([]string(nil), n.Feature.SubFeatures...)
	return &cp
}

func (s *Store) AddNode(_ context.Context, n *graph.Node) error {
	if n == nil || n.ID == "" {
		return rpgerr.Validation("node id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[n.ID] = cloneNode(n)
	return nil
}

func (s *Store) GetNode(_ context.Context, id string) (*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, rpgerr.NotFound("node not found: %s", id)
	}
	return cloneNode(n), nil
}

func deepMergeExtra(dst map[string]any, patch map[string]any) map[string]any {
	if patch == nil {
		return dst
	}
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range patch {
		dst[k] = v
	}
	return dst
}

func (s *Store) UpdateNode(_ context.Context, id string, patch graph.NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return rpgerr.NotFound("node not found: %s", id)
	}
	if patch.Feature != nil {
		// deep-merge into feature: keep existing keywords/subfeatures union,
		// replace description.
		existing := n.Feature
		merged := graph.SemanticFeature{
			Description: patch.Feature.Description,
			Keywords:    unionStrings(existing.Keywords, patch.Feature.Keywords),
			SubFeatures: unionStrings(existing.SubFeatures, patch.Feature.SubFeatures),
		}
		if patch.Feature.Description == "" {
			merged.Description = existing.Description
		}
		n.Feature = merged
	}
	if n.Metadata == nil && (patch.EntityType != nil || patch.Path != nil || patch.QualifiedName != nil ||
		patch.Language != nil || patch.StartLine != nil || patch.EndLine != nil || patch.ExtraPatch != nil) {
		n.Metadata = &graph.StructuralMetadata{}
	}
	if patch.EntityType != nil {
		n.Metadata.EntityType = *patch.EntityType
	}
	if patch.Path != nil {
		n.Metadata.Path = *patch.Path
	}
	if patch.QualifiedName != nil {
		n.Metadata.QualifiedName = *patch.QualifiedName
	}
	if patch.Language != nil {
		n.Metadata.Language = *patch.Language
	}
	if patch.StartLine != nil {
		n.Metadata.StartLine = *patch.StartLine
	}
	if patch.EndLine != nil {
		n.Metadata.EndLine = *patch.EndLine
	}
	if patch.ExtraPatch != nil {
		n.Metadata.Extra = deepMergeExtra(n.Metadata.Extra, patch.ExtraPatch)
	}
	if patch.DirectoryPath != nil {
		n.DirectoryPath = *patch.DirectoryPath
	}
	if patch.SourceCode != nil {
		n.SourceCode = *patch.SourceCode
	}
	return nil
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (s *Store) RemoveNode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return nil
	}
	delete(s.nodes, id)
	for _, e := range append([]*graph.Edge(nil), s.out[id]...) {
		s.unindexEdge(e)
	}
	for _, e := range append([]*graph.Edge(nil), s.in[id]...) {
		s.unindexEdge(e)
	}
	delete(s.out, id)
	delete(s.in, id)
	return nil
}

func (s *Store) unindexEdge(e *graph.Edge) {
	key := e.Key()
	delete(s.edges, key)
	s.out[e.Source] = removeEdge(s.out[e.Source], key)
	s.in[e.Target] = removeEdge(s.in[e.Target], key)
}

func removeEdge(list []*graph.Edge, key graph.EdgeKey) []*graph.Edge {
	out := list[:0]
	for _, e := range list {
		if e.Key() != key {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) GetNodes(_ context.Context, filter graph.NodeFilter) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Node
	for _, n := range s.nodes {
		if filter.HasKind && n.Kind != filter.Kind {
			continue
		}
		if filter.Path != "" {
			if n.Metadata == nil || n.Metadata.Path != filter.Path {
				continue
			}
		}
		out = append(out, cloneNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddEdge(_ context.Context, e *graph.Edge) error {
	if e == nil || e.Source == "" || e.Target == "" {
		return rpgerr.Validation("edge must have source and target")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[e.Source]; !ok {
		return rpgerr.NotFound("edge source not found: %s", e.Source)
	}
	if _, ok := s.nodes[e.Target]; !ok {
		return rpgerr.NotFound("edge target not found: %s", e.Target)
	}
	key := e.Key()
	if _, exists := s.edges[key]; exists {
		return nil // idempotent: duplicate (source,target,type) is a no-op
	}
	if e.Kind == graph.Functional {
		if hasIncomingFunctional(s.in[e.Target]) {
			return rpgerr.Validation("node %s already has a functional parent", e.Target)
		}
		if s.wouldCycle(e.Source, e.Target) {
			return rpgerr.Validation("functional edge %s->%s would create a cycle", e.Source, e.Target)
		}
	}
	cp := *e
	s.edges[key] = &cp
	s.out[e.Source] = append(s.out[e.Source], &cp)
	s.in[e.Target] = append(s.in[e.Target], &cp)
	return nil
}

func hasIncomingFunctional(in []*graph.Edge) bool {
	for _, e := range in {
		if e.Kind == graph.Functional {
			return true
		}
	}
	return false
}

// wouldCycle reports whether adding source->target would put target as an
// ancestor of source in the functional forest (i.e. a cycle).
func (s *Store) wouldCycle(source, target string) bool {
	cur := source
	visited := map[string]bool{}
	for {
		if cur == target {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		parent := ""
		for _, e := range s.in[cur] {
			if e.Kind == graph.Functional {
				parent = e.Source
				break
			}
		}
		if parent == "" {
			return false
		}
		cur = parent
	}
}

func (s *Store) RemoveEdge(_ context.Context, key graph.EdgeKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[key]; !ok {
		return nil
	}
	s.unindexEdge(&graph.Edge{Source: key.Source, Target: key.Target, Kind: key.Kind})
	return nil
}

func (s *Store) GetEdges(_ context.Context, filter graph.EdgeFilter) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Edge
	for _, e := range s.edges {
		if filter.HasKind && e.Kind != filter.Kind {
			continue
		}
		if filter.HasDepType && e.DependencyType != filter.DependencyType {
			continue
		}
		if filter.Source != "" && e.Source != filter.Source {
			continue
		}
		if filter.Target != "" && e.Target != filter.Target {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out, nil
}

func (s *Store) GetChildren(ctx context.Context, id string) ([]*graph.Node, error) {
	s.mu.RLock()
	edges := s.out[id]
	s.mu.RUnlock()
	var out []*graph.Node
	for _, e := range edges {
		if e.Kind != graph.Functional {
			continue
		}
		n, err := s.GetNode(ctx, e.Target)
		if err == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) GetParent(ctx context.Context, id string) (*graph.Node, error) {
	s.mu.RLock()
	edges := s.in[id]
	s.mu.RUnlock()
	for _, e := range edges {
		if e.Kind == graph.Functional {
			return s.GetNode(ctx, e.Source)
		}
	}
	return nil, nil
}

func (s *Store) GetOutEdges(_ context.Context, id string, kind graph.EdgeKind) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Edge
	for _, e := range s.out[id] {
		if kind != "" && e.Kind != kind {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) GetInEdges(_ context.Context, id string, kind graph.EdgeKind) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Edge
	for _, e := range s.in[id] {
		if kind != "" && e.Kind != kind {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) GetDependencies(ctx context.Context, id string) ([]*graph.Node, error) {
	s.mu.RLock()
	edges := s.out[id]
	s.mu.RUnlock()
	var out []*graph.Node
	for _, e := range edges {
		if e.Kind != graph.Dependency {
			continue
		}
		if n, err := s.GetNode(ctx, e.Target); err == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) GetDependents(ctx context.Context, id string) ([]*graph.Node, error) {
	s.mu.RLock()
	edges := s.in[id]
	s.mu.RUnlock()
	var out []*graph.Node
	for _, e := range edges {
		if e.Kind != graph.Dependency {
			continue
		}
		if n, err := s.GetNode(ctx, e.Source); err == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) Traverse(ctx context.Context, opts graph.TraverseOptions) (*graph.TraverseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.nodes[opts.StartNode]; !ok {
		return nil, rpgerr.NotFound("traverse start node not found: %s", opts.StartNode)
	}
	type frame struct {
		id    string
		depth int
	}
	visited := map[string]bool{opts.StartNode: true}
	queue := []frame{{id: opts.StartNode, depth: 0}}
	var nodes []*graph.Node
	var edges []*graph.Edge
	maxReached := 0
	nodes = append(nodes, cloneNode(s.nodes[opts.StartNode]))

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.depth >= opts.MaxDepth {
			continue
		}
		for _, e := range s.neighbors(f.id, opts) {
			nextID := e.Target
			if opts.Direction == graph.DirIn {
				nextID = e.Source
			}
			edges = append(edges, cloneEdge(e))
			if visited[nextID] {
				continue
			}
			visited[nextID] = true
			if n, ok := s.nodes[nextID]; ok {
				nodes = append(nodes, cloneNode(n))
			}
			depth := f.depth + 1
			if depth > maxReached {
				maxReached = depth
			}
			queue = append(queue, frame{id: nextID, depth: depth})
		}
	}
	return &graph.TraverseResult{Nodes: nodes, Edges: dedupEdges(edges), MaxDepthReached: maxReached}, nil
}

func cloneEdge(e *graph.Edge) *graph.Edge {
	cp := *e
	return &cp
}

func dedupEdges(edges []*graph.Edge) []*graph.Edge {
	seen := map[graph.EdgeKey]bool{}
	var out []*graph.Edge
	for _, e := range edges {
		k := e.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

func (s *Store) neighbors(id string, opts graph.TraverseOptions) []*graph.Edge {
	var candidates []*graph.Edge
	switch opts.Direction {
	case graph.DirIn:
		candidates = s.in[id]
	case graph.DirBoth:
		candidates = append(append([]*graph.Edge(nil), s.out[id]...), s.in[id]...)
	default:
		candidates = s.out[id]
	}
	var out []*graph.Edge
	for _, e := range candidates {
		switch opts.EdgeType {
		case graph.TraverseFunctional:
			if e.Kind != graph.Functional {
				continue
			}
		case graph.TraverseDependency:
			if e.Kind != graph.Dependency {
				continue
			}
			if opts.TypeFilter != "" && e.DependencyType != opts.TypeFilter {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// scopeClosure computes the BFS-over-Functional-edges union of subtrees
// rooted at scopes, used to restrict SearchByFeature candidates.
func (s *Store) scopeClosure(scopes []string) map[string]bool {
	closure := map[string]bool{}
	queue := append([]string(nil), scopes...)
	for _, id := range scopes {
		closure[id] = true
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range s.out[id] {
			if e.Kind != graph.Functional {
				continue
			}
			if !closure[e.Target] {
				closure[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return closure
}

func (s *Store) SearchByFeature(_ context.Context, query string, scopes []string) ([]graph.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, nil
	}
	terms := strings.Fields(query)
	var closure map[string]bool
	if len(scopes) > 0 {
		closure = s.scopeClosure(scopes)
	}
	var hits []graph.SearchHit
	for id, n := range s.nodes {
		if closure != nil && !closure[id] {
			continue
		}
		score := featureScore(n, terms)
		if score > 0 {
			hits = append(hits, graph.SearchHit{Node: cloneNode(n), Score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Node.ID < hits[j].Node.ID
	})
	return hits, nil
}

// featureScore is a small BM25-flavored approximation: term frequency over
// description+keywords, weighted higher for keyword exact matches. The
// relational backend (graph/pgstore) uses Postgres's ts_rank for the real
// BM25-style scoring; this keeps the in-memory backend's ranking directionally
// consistent without pulling in a full-text engine.
func featureScore(n *graph.Node, terms []string) float64 {
	desc := strings.ToLower(n.Feature.Description)
	var kw []string
	for _, k := range n.Feature.Keywords {
		kw = append(kw, strings.ToLower(k))
	}
	score := 0.0
	for _, term := range terms {
		if strings.Contains(desc, term) {
			score += 1.0
		}
		for _, k := range kw {
			if k == term {
				score += 2.0
			} else if strings.Contains(k, term) {
				score += 0.5
			}
		}
	}
	return score
}

func (s *Store) SearchByPath(_ context.Context, glob string) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*graph.Node
	for _, n := range s.nodes {
		if n.Metadata == nil {
			continue
		}
		if graph.MatchPathGlob(glob, n.Metadata.Path) {
			out = append(out, cloneNode(n))
			continue
		}
		for _, p := range n.Metadata.Paths() {
			if graph.MatchPathGlob(glob, p) {
				out = append(out, cloneNode(n))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) TopologicalOrder(_ context.Context) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visited := map[string]bool{}
	var order []*graph.Node
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, e := range s.out[id] {
			if e.Kind == graph.Dependency {
				visit(e.Target)
			}
		}
		if n, ok := s.nodes[id]; ok {
			order = append(order, cloneNode(n))
		}
	}
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		visit(id)
	}
	// reverse so sources are yielded before their dependencies
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

func (s *Store) ExportJSON(_ context.Context, cfg graph.Config) (*graph.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := &graph.Document{Version: graph.SchemaVersion, Config: cfg}
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		doc.Nodes = append(doc.Nodes, cloneNode(s.nodes[id]))
	}
	keys := make([]graph.EdgeKey, 0, len(s.edges))
	for k := range s.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Source != keys[j].Source {
			return keys[i].Source < keys[j].Source
		}
		if keys[i].Target != keys[j].Target {
			return keys[i].Target < keys[j].Target
		}
		return keys[i].Kind < keys[j].Kind
	})
	for _, k := range keys {
		doc.Edges = append(doc.Edges, cloneEdge(s.edges[k]))
	}
	return doc, nil
}

func (s *Store) ImportJSON(_ context.Context, doc *graph.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = map[string]*graph.Node{}
	s.edges = map[graph.EdgeKey]*graph.Edge{}
	s.out = map[string][]*graph.Edge{}
	s.in = map[string][]*graph.Edge{}
	for _, n := range doc.Nodes {
		s.nodes[n.ID] = cloneNode(n)
	}
	for _, e := range doc.Edges {
		cp := *e
		s.edges[cp.Key()] = &cp
		s.out[cp.Source] = append(s.out[cp.Source], &cp)
		s.in[cp.Target] = append(s.in[cp.Target], &cp)
	}
	return nil
}
