// Package semantic is the Semantic Extractor (C2): it produces a
// SemanticFeature per entity, aggregates file-level features from direct
// children, and batches extraction calls by an estimated token budget.
// Grounded on maxbolgarin-codry's review-comment extraction: an LLM call
// guarded by a heuristic fallback, with the "content changed, call again"
// cache-invalidation shape reused here as the (filePath, qualifiedName,
// content-hash) cache key of §4.2.
package semantic

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/cache"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/internal/rlog"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/rpgerr"
)

// defaults mirror §6's named batch-size defaults.
const (
	DefaultMinBatchTokens = 10000
	DefaultMaxBatchTokens = 50000
	bytesPerToken         = 4
	perEntityOverhead     = 40 // fixed token overhead per entity in a batched call
	// DefaultBatchWorkers bounds ExtractBatch's concurrent in-flight batch
	// calls (§5).
	DefaultBatchWorkers = 4
)

// Extractor is the C2 public contract. Backend nil selects heuristic mode;
// a non-nil Backend selects LLM mode with heuristic fallback on failure.
type Extractor struct {
	Backend        llm.Backend
	Cache          *cache.Cache
	MinBatchTokens int
	MaxBatchTokens int
	// BatchWorkers bounds ExtractBatch's concurrent in-flight batch calls;
	// defaults to DefaultBatchWorkers.
	BatchWorkers int

	log interface {
		Warn(msg string, args ...any)
	}
}

// New returns an Extractor. backend may be nil for heuristic-only mode.
func New(backend llm.Backend, c *cache.Cache) *Extractor {
	return &Extractor{
		Backend:        backend,
		Cache:          c,
		MinBatchTokens: DefaultMinBatchTokens,
		MaxBatchTokens: DefaultMaxBatchTokens,
		BatchWorkers:   DefaultBatchWorkers,
		log:            rlog.Named("semantic"),
	}
}

// estimateTokens approximates an entity's token cost: ~1 token per 4 bytes
// of source plus a fixed per-entity overhead (§4.2).
func estimateTokens(e ast.CodeEntity) int {
	return len(e.Body)/bytesPerToken + perEntityOverhead
}

// Extract produces a single SemanticFeature for one entity, reading through
// the Semantic Cache when configured. Concurrent calls for the same
// (filePath, qualifiedName, content) made while Phase 1 is dispatching
// several files in parallel collapse into a single underlying compute via
// the cache's singleflight de-duplication.
func (x *Extractor) Extract(ctx context.Context, filePath string, e ast.CodeEntity) (graph.SemanticFeature, error) {
	compute := func() (graph.SemanticFeature, error) {
		if x.Backend == nil {
			return heuristicFeature(e), nil
		}
		f, err := x.extractWithLLM(ctx, e)
		if err != nil {
			x.log.Warn("llm extraction failed, falling back to heuristic", "entity", e.QualifiedName, "error", err)
			return heuristicFeature(e), nil
		}
		return f, nil
	}

	if x.Cache == nil {
		return compute()
	}
	return x.Cache.GetOrCompute(filePath, e.QualifiedName, []byte(e.Body), compute)
}

// ExtractBatch extracts features for every entity, preserving input order,
// partitioned into token-bounded batches per §4.2's rules. Empty input
// yields empty output. Batches suspend independently (§5: "Semantic
// Extractor batches suspend once per batch, not per entity"), so they are
// dispatched over a bounded ants worker pool the same way Encoder Phase 1
// dispatches files, and reassembled into a results slice indexed by batch
// position rather than append-on-completion, so the final order is
// unaffected by which batch's call happens to return first.
func (x *Extractor) ExtractBatch(ctx context.Context, filePath string, entities []ast.CodeEntity) ([]graph.SemanticFeature, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	batches := x.partitionBatches(entities)

	workers := x.batchWorkers()
	if workers > len(batches) {
		workers = len(batches)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, rpgerr.Config("create batch worker pool: %v", err)
	}
	defer pool.Release()

	results := make([][]graph.SemanticFeature, len(batches))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			feats, err := x.extractOneBatch(ctx, filePath, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = feats
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = rpgerr.Config("submit batch task: %v", submitErr)
			}
			mu.Unlock()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]graph.SemanticFeature, 0, len(entities))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (x *Extractor) extractOneBatch(ctx context.Context, filePath string, batch []ast.CodeEntity) ([]graph.SemanticFeature, error) {
	if len(batch) == 1 {
		f, err := x.Extract(ctx, filePath, batch[0])
		if err != nil {
			return nil, err
		}
		return []graph.SemanticFeature{f}, nil
	}
	return x.extractBatchLLM(ctx, filePath, batch)
}

// batchWorkers bounds ExtractBatch's concurrent in-flight batch calls (§5's
// "configurable max in-flight count"); defaults to 4.
func (x *Extractor) batchWorkers() int {
	if x.BatchWorkers > 0 {
		return x.BatchWorkers
	}
	return DefaultBatchWorkers
}

func (x *Extractor) minTokens() int {
	if x.MinBatchTokens > 0 {
		return x.MinBatchTokens
	}
	return DefaultMinBatchTokens
}

func (x *Extractor) maxTokens() int {
	if x.MaxBatchTokens > 0 {
		return x.MaxBatchTokens
	}
	return DefaultMaxBatchTokens
}

// partitionBatches implements the §4.2 batching rules: a single entity
// exceeding maxBatchTokens goes alone; entities append in input order while
// within budget; a final batch smaller than minBatchTokens merges into its
// predecessor unless that would exceed maxBatchTokens.
func (x *Extractor) partitionBatches(entities []ast.CodeEntity) [][]ast.CodeEntity {
	maxTok := x.maxTokens()
	minTok := x.minTokens()

	var batches [][]ast.CodeEntity
	var batchTokens []int
	var current []ast.CodeEntity
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			batchTokens = append(batchTokens, currentTokens)
			current = nil
			currentTokens = 0
		}
	}

	for _, e := range entities {
		tok := estimateTokens(e)
		if tok > maxTok {
			flush()
			batches = append(batches, []ast.CodeEntity{e})
			batchTokens = append(batchTokens, tok)
			continue
		}
		if currentTokens+tok > maxTok {
			flush()
		}
		current = append(current, e)
		currentTokens += tok
	}
	flush()

	if len(batches) >= 2 {
		last := len(batches) - 1
		if batchTokens[last] < minTok && batchTokens[last-1]+batchTokens[last] <= maxTok {
			batches[last-1] = append(batches[last-1], batches[last]...)
			batches = batches[:last]
		}
	}
	return batches
}

// AggregateFileFeatures synthesizes a file-level SemanticFeature from the
// direct (non-nested) children's features, merging and deduplicating their
// keyword sets. An empty child list falls back to a name-derived default
// (invariant 7: never a paraphrase of the file name when children exist).
func (x *Extractor) AggregateFileFeatures(children []graph.SemanticFeature, fileName, filePath string) graph.SemanticFeature {
	if len(children) == 0 {
		return defaultFileFeature(fileName)
	}
	return aggregateHeuristic(children, fileName)
}
