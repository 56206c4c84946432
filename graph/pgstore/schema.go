package pgstore

import (
	"context"
	"fmt"

	"github.com/viant/rpgraph/rpgerr"
)

const ddlNodes = `
CREATE TABLE IF NOT EXISTS rpg_nodes (
    id               TEXT        PRIMARY KEY,
    kind             TEXT        NOT NULL,
    feature_description TEXT     NOT NULL DEFAULT '',
    feature_keywords TEXT[]      NOT NULL DEFAULT '{}',
    feature_subfeatures TEXT[]   NOT NULL DEFAULT '{}',
    metadata         JSONB       NOT NULL DEFAULT '{}',
    directory_path   TEXT        NOT NULL DEFAULT '',
    source_code      TEXT        NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_rpg_nodes_kind ON rpg_nodes (kind);
CREATE INDEX IF NOT EXISTS idx_rpg_nodes_path ON rpg_nodes ((metadata->>'path'));
CREATE INDEX IF NOT EXISTS idx_rpg_nodes_fts ON rpg_nodes USING GIN (
    to_tsvector('english', feature_description || ' ' || array_to_string(feature_keywords, ' '))
);
`

const ddlEdges = `
CREATE TABLE IF NOT EXISTS rpg_edges (
    source           TEXT        NOT NULL REFERENCES rpg_nodes (id) ON DELETE CASCADE,
    target           TEXT        NOT NULL REFERENCES rpg_nodes (id) ON DELETE CASCADE,
    kind             TEXT        NOT NULL,
    dependency_type  TEXT        NOT NULL DEFAULT '',
    level            INT,
    sibling_order    INT,
    is_runtime       BOOLEAN,
    line             INT,
    PRIMARY KEY (source, target, kind)
);

CREATE INDEX IF NOT EXISTS idx_rpg_edges_source ON rpg_edges (source, kind);
CREATE INDEX IF NOT EXISTS idx_rpg_edges_target ON rpg_edges (target, kind);
`

// ddlEmbedding returns the pgvector column DDL for dim, or the empty string
// when embeddings are disabled.
func ddlEmbedding(dim int) string {
	if dim <= 0 {
		return ""
	}
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
ALTER TABLE rpg_nodes ADD COLUMN IF NOT EXISTS embedding vector(%d);
CREATE INDEX IF NOT EXISTS idx_rpg_nodes_embedding ON rpg_nodes USING hnsw (embedding vector_cosine_ops);
`, dim)
}

// migrate creates or ensures every required table, index, and extension
// exists. Idempotent: safe to call on every process start.
func (s *Store) migrate(ctx context.Context) error {
	statements := []string{ddlNodes, ddlEdges}
	if stmt := ddlEmbedding(s.embeddingDim); stmt != "" {
		statements = append(statements, stmt)
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return rpgerr.Store(err, "pgstore: migrate")
		}
	}
	return nil
}
