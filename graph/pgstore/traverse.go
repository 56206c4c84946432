package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// Traverse performs a bounded multi-edge BFS from opts.StartNode, grounded
// on the reachable/path_search recursive-CTE pattern: a cycle-guarding
// "visited" array accumulates along each path and blocks revisits.
func (s *Store) Traverse(ctx context.Context, opts graph.TraverseOptions) (*graph.TraverseResult, error) {
	maxDepth := opts.MaxDepth
	if maxDepth < 0 {
		maxDepth = 0
	}

	joinCond, err := directionJoin(opts.Direction)
	if err != nil {
		return nil, err
	}

	var kindFilter string
	args := []any{opts.StartNode, maxDepth}
	next := func(v any) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}
	switch opts.EdgeType {
	case graph.TraverseFunctional:
		kindFilter = "AND e.kind = " + next(string(graph.Functional))
	case graph.TraverseDependency:
		kindFilter = "AND e.kind = " + next(string(graph.Dependency))
	case graph.TraverseBoth, "":
		// no kind restriction
	default:
		return nil, rpgerr.Validation("pgstore: unknown traverse edge type %q", opts.EdgeType)
	}
	if opts.TypeFilter != "" {
		kindFilter += "\n\t\t      AND (e.kind != " + next(string(graph.Dependency)) +
			" OR e.dependency_type = " + next(string(opts.TypeFilter)) + ")"
	}

	q := `
		WITH RECURSIVE reachable AS (
		    SELECT $1::text AS id, ARRAY[$1::text] AS visited, 0 AS depth

		    UNION ALL

		    SELECT ` + joinCond.neighborExpr + `,
		           r.visited || ` + joinCond.neighborExpr + `,
		           r.depth + 1
		    FROM   reachable r
		    JOIN   rpg_edges e ON ` + joinCond.joinClause + `
		    WHERE  r.depth < $2
		      AND  NOT (` + joinCond.neighborExpr + ` = ANY(r.visited))
		      ` + kindFilter + `
		)
		SELECT DISTINCT ON (id) id, depth
		FROM   reachable
		WHERE  id != $1
		ORDER  BY id, depth`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: traverse")
	}
	type reached struct {
		id    string
		depth int
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reached, error) {
		var r reached
		err := row.Scan(&r.id, &r.depth)
		return r, err
	})
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan traverse")
	}

	result := &graph.TraverseResult{}
	ids := make([]string, 0, len(hits)+1)
	ids = append(ids, opts.StartNode)
	for _, h := range hits {
		ids = append(ids, h.id)
		if h.depth > result.MaxDepthReached {
			result.MaxDepthReached = h.depth
		}
	}
	nodes, err := s.fetchNodesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	result.Nodes = nodes

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	edges, err := s.GetEdges(ctx, graph.EdgeFilter{})
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if idSet[e.Source] && idSet[e.Target] {
			result.Edges = append(result.Edges, e)
		}
	}
	return result, nil
}

type directionCols struct{ joinClause, neighborExpr string }

func directionJoin(dir graph.Direction) (directionCols, error) {
	switch dir {
	case graph.DirOut, "":
		return directionCols{joinClause: "e.source = r.id", neighborExpr: "e.target"}, nil
	case graph.DirIn:
		return directionCols{joinClause: "e.target = r.id", neighborExpr: "e.source"}, nil
	case graph.DirBoth:
		return directionCols{
			joinClause:   "(e.source = r.id OR e.target = r.id)",
			neighborExpr: "(CASE WHEN e.source = r.id THEN e.target ELSE e.source END)",
		}, nil
	default:
		return directionCols{}, rpgerr.Validation("pgstore: unknown traverse direction %q", dir)
	}
}

func (s *Store) fetchNodesByID(ctx context.Context, ids []string) ([]*graph.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := "SELECT " + selectNodeCols + " FROM rpg_nodes WHERE id = ANY($1) ORDER BY id"
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: fetch nodes by id")
	}
	nodes, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan nodes by id")
	}
	return nodes, nil
}
