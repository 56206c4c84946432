package pgstore

import (
	"context"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// TopologicalOrder returns a post-order over Dependency edges with sources
// yielded before their dependencies. The ordering walk runs in process over
// one snapshot read of nodes and dependency edges.
func (s *Store) TopologicalOrder(ctx context.Context) ([]*graph.Node, error) {
	nodes, err := s.GetNodes(ctx, graph.NodeFilter{})
	if err != nil {
		return nil, err
	}
	edges, err := s.GetEdges(ctx, graph.EdgeFilter{Kind: graph.Dependency, HasKind: true})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*graph.Node, len(nodes))
	out := make(map[string][]string, len(edges))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(nodes))
	var order []*graph.Node
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range out[id] {
			visit(dep)
		}
		if n, ok := byID[id]; ok {
			order = append(order, n)
		}
	}
	for _, n := range nodes {
		visit(n.ID)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// ExportJSON serializes the whole graph using the canonical schema.
func (s *Store) ExportJSON(ctx context.Context, cfg graph.Config) (*graph.Document, error) {
	nodes, err := s.GetNodes(ctx, graph.NodeFilter{})
	if err != nil {
		return nil, err
	}
	edges, err := s.GetEdges(ctx, graph.EdgeFilter{})
	if err != nil {
		return nil, err
	}
	return &graph.Document{
		Version: graph.SchemaVersion,
		Config:  cfg,
		Nodes:   nodes,
		Edges:   edges,
	}, nil
}

// ImportJSON replaces the store contents with doc's nodes and edges inside
// a single transaction, so a failed import leaves the prior graph intact.
func (s *Store) ImportJSON(ctx context.Context, doc *graph.Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return rpgerr.Store(err, "pgstore: begin import")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM rpg_edges"); err != nil {
		return rpgerr.Store(err, "pgstore: clear edges")
	}
	if _, err := tx.Exec(ctx, "DELETE FROM rpg_nodes"); err != nil {
		return rpgerr.Store(err, "pgstore: clear nodes")
	}

	const nodeQ = `
		INSERT INTO rpg_nodes (id, kind, feature_description, feature_keywords, feature_subfeatures, metadata, directory_path, source_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, n := range doc.Nodes {
		metaJSON, err := toMetadataJSON(n.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, nodeQ, n.ID, string(n.Kind), n.Feature.Description,
			n.Feature.Keywords, n.Feature.SubFeatures, metaJSON, n.DirectoryPath, n.SourceCode); err != nil {
			return rpgerr.Store(err, "pgstore: import node")
		}
	}

	const edgeQ = `
		INSERT INTO rpg_edges (source, target, kind, dependency_type, level, sibling_order, is_runtime, line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source, target, kind) DO NOTHING`
	for _, e := range doc.Edges {
		if _, err := tx.Exec(ctx, edgeQ, e.Source, e.Target, string(e.Kind), string(e.DependencyType),
			e.Level, e.SiblingOrder, e.IsRuntime, e.Line); err != nil {
			return rpgerr.Store(err, "pgstore: import edge")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return rpgerr.Store(err, "pgstore: commit import")
	}
	return nil
}
