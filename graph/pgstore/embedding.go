package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// UpdateEmbedding stores vec as the node's embedding. Requires the store to
// have been opened with a non-zero embeddingDim matching len(vec).
func (s *Store) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	if s.embeddingDim == 0 {
		return rpgerr.Config("pgstore: embeddings disabled (embeddingDim = 0)")
	}
	if len(vec) != s.embeddingDim {
		return rpgerr.Validation("pgstore: embedding has %d dimensions, column expects %d", len(vec), s.embeddingDim)
	}
	tag, err := s.pool.Exec(ctx, "UPDATE rpg_nodes SET embedding = $2 WHERE id = $1",
		id, pgvector.NewVector(vec))
	if err != nil {
		return rpgerr.Store(err, "pgstore: update embedding")
	}
	if tag.RowsAffected() == 0 {
		return rpgerr.NotFound("node not found: %s", id)
	}
	return nil
}

// NearestByEmbedding returns up to limit nodes ranked by cosine similarity
// to vec, skipping nodes with no stored embedding. Score is the similarity
// (1 - cosine distance).
func (s *Store) NearestByEmbedding(ctx context.Context, vec []float32, limit int) ([]graph.SearchHit, error) {
	if s.embeddingDim == 0 {
		return nil, rpgerr.Config("pgstore: embeddings disabled (embeddingDim = 0)")
	}
	if limit <= 0 {
		limit = 10
	}
	q := `
		SELECT ` + selectNodeCols + `,
		       (1 - (embedding <=> $1))::float8 AS similarity
		FROM   rpg_nodes
		WHERE  embedding IS NOT NULL
		ORDER  BY embedding <=> $1
		LIMIT  $2`
	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: nearest by embedding")
	}
	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graph.SearchHit, error) {
		var (
			n       graph.Node
			kind    string
			metaRaw []byte
			score   float64
		)
		if err := row.Scan(&n.ID, &kind, &n.Feature.Description, &n.Feature.Keywords,
			&n.Feature.SubFeatures, &metaRaw, &n.DirectoryPath, &n.SourceCode, &score); err != nil {
			return graph.SearchHit{}, err
		}
		n.Kind = graph.NodeKind(kind)
		meta, err := fromMetadataJSON(metaRaw)
		if err != nil {
			return graph.SearchHit{}, err
		}
		n.Metadata = meta
		return graph.SearchHit{Node: &n, Score: score}, nil
	})
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: scan nearest hits")
	}
	return hits, nil
}
