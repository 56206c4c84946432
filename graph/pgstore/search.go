package pgstore

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// SearchByFeature runs the query against the GIN-indexed tsvector over
// feature description + keywords, ranked by ts_rank. When scopes is
// non-empty, candidates are restricted to the union of Functional subtrees
// rooted at the given ids, computed by the same recursive CTE Traverse uses.
func (s *Store) SearchByFeature(ctx context.Context, query string, scopes []string) ([]graph.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	q := `
		SELECT ` + selectNodeCols + `,
		       ts_rank(to_tsvector('english', feature_description || ' ' || array_to_string(feature_keywords, ' ')),
		               plainto_tsquery('english', $1))::float8 AS rank
		FROM   rpg_nodes
		WHERE  to_tsvector('english', feature_description || ' ' || array_to_string(feature_keywords, ' '))
		       @@ plainto_tsquery('english', $1)`
	args := []any{query}
	if len(scopes) > 0 {
		q += `
		  AND  id = ANY(
		       WITH RECURSIVE subtree AS (
		           SELECT unnest($2::text[]) AS id
		           UNION
		           SELECT e.target
		           FROM   subtree t
		           JOIN   rpg_edges e ON e.source = t.id AND e.kind = $3
		       )
		       SELECT id FROM subtree)`
		args = append(args, scopes, string(graph.Functional))
	}
	q += `
		ORDER BY rank DESC, id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: search by feature")
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graph.SearchHit, error) {
		var (
			n       graph.Node
			kind    string
			metaRaw []byte
			rank    float64
		)
		if err := row.Scan(&n.ID, &kind, &n.Feature.Description, &n.Feature.Keywords,
			&n.Feature.SubFeatures, &metaRaw, &n.DirectoryPath, &n.SourceCode, &rank); err != nil {
			return graph.SearchHit{}, err
		}
		n.Kind = graph.NodeKind(kind)
		meta, err := fromMetadataJSON(metaRaw)
		if err != nil {
			return graph.SearchHit{}, err
		}
		n.Metadata = meta
		return graph.SearchHit{Node: &n, Score: rank}, nil
	})
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan search hits")
	}
	return hits, nil
}

// SearchByPath matches glob against metadata.path and each entry of
// metadata.extra.paths. A coarse LIKE prefilter narrows the candidate set
// server-side; the segment-exact glob semantics are applied in process via
// graph.MatchPathGlob so both backends match identically.
func (s *Store) SearchByPath(ctx context.Context, glob string) ([]*graph.Node, error) {
	q := "SELECT " + selectNodeCols + " FROM rpg_nodes WHERE metadata != '{}'::jsonb"
	var args []any
	if prefix := globLiteralPrefix(glob); prefix != "" {
		q += " AND (metadata->>'path' LIKE $1 OR metadata->'extra'->'paths' IS NOT NULL)"
		args = append(args, prefix+"%")
	}
	q += " ORDER BY id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: search by path")
	}
	candidates, err := pgx.CollectRows(rows, scanNode)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan path candidates")
	}

	var out []*graph.Node
	for _, n := range candidates {
		if n.Metadata == nil {
			continue
		}
		if graph.MatchPathGlob(glob, n.Metadata.Path) {
			out = append(out, n)
			continue
		}
		for _, p := range n.Metadata.Paths() {
			if graph.MatchPathGlob(glob, p) {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

// globLiteralPrefix returns the longest glob prefix free of wildcards,
// usable as a LIKE prefilter. Empty when the glob starts with a wildcard.
func globLiteralPrefix(glob string) string {
	idx := strings.IndexByte(glob, '*')
	if idx < 0 {
		return glob
	}
	return glob[:idx]
}
