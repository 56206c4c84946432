// Package tools is the Tools surface (C10): SearchNode, FetchNode, and
// ExploreRPG, the three read-only operations an LLM agent or CLI drives
// against an existing RPG. Grounded on the teacher's inspector package's
// thin query-facade style (a handful of narrow read methods over the
// underlying store, never exposing the store's own interface directly).
package tools

import (
	"context"
	"strings"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/rpgerr"
)

// SearchMode selects SearchNode's query strategy (§4.10).
type SearchMode string

const (
	SearchFeatures SearchMode = "features"
	SearchSnippets SearchMode = "snippets"
	SearchAuto     SearchMode = "auto"
)

// SearchOptions configures one SearchNode.Query call.
type SearchOptions struct {
	Mode        SearchMode
	Terms       []string
	FilePattern string
	Scopes      []string
}

// SearchResult is one matched node with its search score.
type SearchResult struct {
	Node  *graph.Node
	Score float64
}

// SearchNode implements §4.10's feature/snippet/auto search modes.
type SearchNode struct {
	Store graph.Store
}

// NewSearchNode returns a SearchNode over store.
func NewSearchNode(store graph.Store) *SearchNode {
	return &SearchNode{Store: store}
}

// Query runs opts.Mode against the store, deduplicating hits by node id
// while preserving first-seen order.
func (s *SearchNode) Query(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	switch opts.Mode {
	case SearchSnippets:
		nodes, err := s.searchByPath(ctx, opts.FilePattern)
		if err != nil {
			return nil, err
		}
		return dedupNodes(nodes), nil
	case SearchAuto:
		return s.searchAuto(ctx, opts)
	default: // SearchFeatures, and the zero value
		hits, err := s.searchByFeatures(ctx, opts.Terms, opts.Scopes)
		if err != nil {
			return nil, err
		}
		return dedupHits(hits), nil
	}
}

// searchAuto implements §4.10's staged fallback: feature search first;
// only when it returns nothing and a file pattern was given does snippet
// search run, to bootstrap anchors for a subsequent feature search.
func (s *SearchNode) searchAuto(ctx context.Context, opts SearchOptions) ([]SearchResult, error) {
	hits, err := s.searchByFeatures(ctx, opts.Terms, opts.Scopes)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 || opts.FilePattern == "" {
		return dedupHits(hits), nil
	}
	nodes, err := s.searchByPath(ctx, opts.FilePattern)
	if err != nil {
		return nil, err
	}
	return dedupNodes(nodes), nil
}

func (s *SearchNode) searchByFeatures(ctx context.Context, terms, scopes []string) ([]SearchResult, error) {
	var all []SearchResult
	for _, term := range terms {
		hits, err := s.Store.SearchByFeature(ctx, term, scopes)
		if err != nil {
			return nil, rpgerr.Store(err, "search by feature")
		}
		for _, h := range hits {
			all = append(all, SearchResult{Node: h.Node, Score: h.Score})
		}
	}
	return all, nil
}

func (s *SearchNode) searchByPath(ctx context.Context, pattern string) ([]*graph.Node, error) {
	nodes, err := s.Store.SearchByPath(ctx, pattern)
	if err != nil {
		return nil, rpgerr.Store(err, "search by path")
	}
	return nodes, nil
}

func dedupHits(hits []SearchResult) []SearchResult {
	seen := map[string]bool{}
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Node == nil || seen[h.Node.ID] {
			continue
		}
		seen[h.Node.ID] = true
		out = append(out, h)
	}
	return out
}

func dedupNodes(nodes []*graph.Node) []SearchResult {
	seen := map[string]bool{}
	out := make([]SearchResult, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, SearchResult{Node: n, Score: 1})
	}
	return out
}

// FetchResult is one resolved id's node, source snippet, and ancestry path.
type FetchResult struct {
	Node     *graph.Node
	Snippet  string
	Ancestry string
}

// FetchNode implements §4.10's Fetch: resolve ids to nodes, their source
// snippet when present, and a "root / ... / node" ancestry path.
type FetchNode struct {
	Store graph.Store
}

// NewFetchNode returns a FetchNode over store.
func NewFetchNode(store graph.Store) *FetchNode {
	return &FetchNode{Store: store}
}

// FetchOptions selects which ids to resolve; codeEntities and
// featureEntities are both treated as plain node ids (the distinction is a
// caller-side labeling convenience, not a different lookup path).
type FetchOptions struct {
	CodeEntities    []string
	FeatureEntities []string
}

// Get resolves every requested id, reporting unresolved ones in notFound.
func (f *FetchNode) Get(ctx context.Context, opts FetchOptions) (results []FetchResult, notFound []string, err error) {
	ids := append(append([]string{}, opts.CodeEntities...), opts.FeatureEntities...)
	for _, id := range ids {
		node, err := f.Store.GetNode(ctx, id)
		if err != nil {
			if rpgerr.CodeOf(err) == rpgerr.CodeNotFound {
				notFound = append(notFound, id)
				continue
			}
			return nil, nil, err
		}
		ancestry, err := f.ancestry(ctx, node)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, FetchResult{Node: node, Snippet: node.SourceCode, Ancestry: ancestry})
	}
	return results, notFound, nil
}

// ancestry walks Functional parents from node to the root, joining names
// with " / " to form "root / ... / node" (§4.10).
func (f *FetchNode) ancestry(ctx context.Context, node *graph.Node) (string, error) {
	chain := []string{node.ID}
	current := node
	for {
		parent, err := f.Store.GetParent(ctx, current.ID)
		if err != nil {
			return "", rpgerr.Store(err, "walk functional ancestry")
		}
		if parent == nil {
			break
		}
		chain = append(chain, parent.ID)
		current = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return strings.Join(chain, " / "), nil
}

// ExploreRPG implements §4.10's bounded traversal over the RPG.
type ExploreRPG struct {
	Store graph.Store
}

// NewExploreRPG returns an ExploreRPG over store.
func NewExploreRPG(store graph.Store) *ExploreRPG {
	return &ExploreRPG{Store: store}
}

// Traverse delegates to Store.Traverse, which already guarantees
// termination via a visited set and opts.MaxDepth.
func (e *ExploreRPG) Traverse(ctx context.Context, opts graph.TraverseOptions) (*graph.TraverseResult, error) {
	result, err := e.Store.Traverse(ctx, opts)
	if err != nil {
		return nil, rpgerr.Store(err, "traverse rpg")
	}
	return result, nil
}
