// Package pgstore is the relational Graph Store backend (§4.3): a
// Postgres + pgvector implementation of graph.Store using recursive-CTE
// traversal and GIN full-text search, interchangeable with graph/memstore.
// Grounded on MrWong99-glyphoxa's pkg/memory/postgres package: a single
// pgxpool.Pool, an idempotent Migrate step registering pgvector types via
// AfterConnect, and upsert-by-ON-CONFLICT writes.
package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// Store is a Postgres-backed graph.Store. All methods are safe for
// concurrent use; the underlying pool serializes writes at the connection
// level the same way every other Store implementation does (§5's "single
// owner per store instance" is Postgres's own transaction isolation here).
type Store struct {
	pool *pgxpool.Pool
	// embeddingDim, when non-zero, sizes the nodes.embedding pgvector
	// column so callers that wire an EmbeddingBackend into Evolution/
	// Reorganization can persist node embeddings alongside each node
	// (not required by the abstract graph.Store surface, which only
	// takes free-text queries, but present so a pgvector-aware caller can
	// rank by cosine distance via UpdateEmbedding/NearestByEmbedding).
	embeddingDim int
}

var _ graph.Store = (*Store)(nil)

// Open connects to dsn, registers pgvector types on every connection, and
// runs Migrate. embeddingDim sizes the optional nodes.embedding column (0
// disables it).
func Open(ctx context.Context, dsn string, embeddingDim int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, rpgerr.Config("pgstore: parse dsn: %v", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, rpgerr.Store(err, "pgstore: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, rpgerr.Store(err, "pgstore: ping")
	}

	s := &Store{pool: pool, embeddingDim: embeddingDim}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}
