package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

const selectEdgeCols = `source, target, kind, dependency_type, level, sibling_order, is_runtime, line`

func scanEdge(row pgx.CollectableRow) (*graph.Edge, error) {
	var (
		e                            graph.Edge
		kind, depType                string
		level, siblingOrder, line    *int
		isRuntime                    *bool
	)
	if err := row.Scan(&e.Source, &e.Target, &kind, &depType, &level, &siblingOrder, &isRuntime, &line); err != nil {
		return nil, err
	}
	e.Kind = graph.EdgeKind(kind)
	e.DependencyType = graph.DependencyType(depType)
	e.Level = level
	e.SiblingOrder = siblingOrder
	e.IsRuntime = isRuntime
	e.Line = line
	return &e, nil
}

// AddEdge upserts e by its (source, target, kind) identity, matching the
// abstract Store's idempotent-insert contract.
func (s *Store) AddEdge(ctx context.Context, e *graph.Edge) error {
	const q = `
		INSERT INTO rpg_edges (source, target, kind, dependency_type, level, sibling_order, is_runtime, line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source, target, kind) DO UPDATE SET
		    dependency_type = EXCLUDED.dependency_type,
		    level           = EXCLUDED.level,
		    sibling_order   = EXCLUDED.sibling_order,
		    is_runtime      = EXCLUDED.is_runtime,
		    line            = EXCLUDED.line`
	_, err := s.pool.Exec(ctx, q, e.Source, e.Target, string(e.Kind), string(e.DependencyType),
		e.Level, e.SiblingOrder, e.IsRuntime, e.Line)
	if err != nil {
		return rpgerr.Store(err, "pgstore: add edge")
	}
	return nil
}

// RemoveEdge deletes the edge with the given identity, if present.
func (s *Store) RemoveEdge(ctx context.Context, key graph.EdgeKey) error {
	const q = `DELETE FROM rpg_edges WHERE source = $1 AND target = $2 AND kind = $3`
	if _, err := s.pool.Exec(ctx, q, key.Source, key.Target, string(key.Kind)); err != nil {
		return rpgerr.Store(err, "pgstore: remove edge")
	}
	return nil
}

// GetEdges lists edges matching filter (zero value matches all).
func (s *Store) GetEdges(ctx context.Context, filter graph.EdgeFilter) ([]*graph.Edge, error) {
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}
	var conditions []string
	if filter.HasKind {
		conditions = append(conditions, "kind = "+next(string(filter.Kind)))
	}
	if filter.HasDepType {
		conditions = append(conditions, "dependency_type = "+next(string(filter.DependencyType)))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = "+next(filter.Source))
	}
	if filter.Target != "" {
		conditions = append(conditions, "target = "+next(filter.Target))
	}

	q := "SELECT " + selectEdgeCols + " FROM rpg_edges"
	if len(conditions) > 0 {
		q += " WHERE " + joinAnd(conditions)
	}
	q += " ORDER BY source, target"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get edges")
	}
	edges, err := pgx.CollectRows(rows, scanEdge)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan edges")
	}
	return edges, nil
}

// GetChildren returns nodes reached by one outgoing Functional edge.
func (s *Store) GetChildren(ctx context.Context, id string) ([]*graph.Node, error) {
	q := `
		SELECT ` + nodeColsPrefixed("n") + `
		FROM rpg_nodes n
		JOIN rpg_edges e ON e.target = n.id
		WHERE e.source = $1 AND e.kind = $2
		ORDER BY e.sibling_order NULLS LAST, n.id`
	rows, err := s.pool.Query(ctx, q, id, string(graph.Functional))
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get children")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan children")
	}
	return nodes, nil
}

// GetParent returns the node reached by the single incoming Functional edge,
// or nil when id is a root.
func (s *Store) GetParent(ctx context.Context, id string) (*graph.Node, error) {
	q := `
		SELECT ` + nodeColsPrefixed("n") + `
		FROM rpg_nodes n
		JOIN rpg_edges e ON e.source = n.id
		WHERE e.target = $1 AND e.kind = $2
		LIMIT 1`
	rows, err := s.pool.Query(ctx, q, id, string(graph.Functional))
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get parent")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan parent")
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// GetOutEdges returns outgoing edges, optionally filtered by kind (empty
// kind means unfiltered).
func (s *Store) GetOutEdges(ctx context.Context, id string, kind graph.EdgeKind) ([]*graph.Edge, error) {
	q := "SELECT " + selectEdgeCols + " FROM rpg_edges WHERE source = $1"
	args := []any{id}
	if kind != "" {
		q += " AND kind = $2"
		args = append(args, string(kind))
	}
	q += " ORDER BY target"
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get out edges")
	}
	edges, err := pgx.CollectRows(rows, scanEdge)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan out edges")
	}
	return edges, nil
}

// GetInEdges returns incoming edges, optionally filtered by kind.
func (s *Store) GetInEdges(ctx context.Context, id string, kind graph.EdgeKind) ([]*graph.Edge, error) {
	q := "SELECT " + selectEdgeCols + " FROM rpg_edges WHERE target = $1"
	args := []any{id}
	if kind != "" {
		q += " AND kind = $2"
		args = append(args, string(kind))
	}
	q += " ORDER BY source"
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get in edges")
	}
	edges, err := pgx.CollectRows(rows, scanEdge)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan in edges")
	}
	return edges, nil
}

// GetDependencies returns nodes reached by one outgoing Dependency edge.
func (s *Store) GetDependencies(ctx context.Context, id string) ([]*graph.Node, error) {
	return s.edgeNeighbors(ctx, id, graph.Dependency, true)
}

// GetDependents returns nodes reached by one incoming Dependency edge.
func (s *Store) GetDependents(ctx context.Context, id string) ([]*graph.Node, error) {
	return s.edgeNeighbors(ctx, id, graph.Dependency, false)
}

func (s *Store) edgeNeighbors(ctx context.Context, id string, kind graph.EdgeKind, outgoing bool) ([]*graph.Node, error) {
	joinCol, whereCol := "target", "source"
	if !outgoing {
		joinCol, whereCol = "source", "target"
	}
	q := `
		SELECT ` + nodeColsPrefixed("n") + `
		FROM rpg_nodes n
		JOIN rpg_edges e ON e.` + joinCol + ` = n.id
		WHERE e.` + whereCol + ` = $1 AND e.kind = $2
		ORDER BY n.id`
	rows, err := s.pool.Query(ctx, q, id, string(kind))
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: get edge neighbors")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan edge neighbors")
	}
	return nodes, nil
}

func nodeColsPrefixed(alias string) string {
	cols := []string{"id", "kind", "feature_description", "feature_keywords", "feature_subfeatures", "metadata", "directory_path", "source_code"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}
