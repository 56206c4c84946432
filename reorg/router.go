package reorg

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/rpgerr"
)

// SemanticRouter implements FindBestParent (§4.6), shared by Reorganization
// (placing a newly-discovered group) and Evolution (re-routing an inserted
// or drifted node). Backend nil selects the cosine-similarity heuristic
// fallback over Embedder; both must never be nil simultaneously for
// FindBestParent to do anything useful, but the heuristic degrades to
// "stay at root" when neither is configured.
type SemanticRouter struct {
	Store    graph.Store
	Backend  llm.Backend
	Embedder llm.EmbeddingBackend
}

// NewSemanticRouter returns a SemanticRouter over store.
func NewSemanticRouter(store graph.Store, backend llm.Backend, embedder llm.EmbeddingBackend) *SemanticRouter {
	return &SemanticRouter{Store: store, Backend: backend, Embedder: embedder}
}

// FindBestParent descends from root, at each level asking which HighLevel
// child (if any) is the most semantically compatible parent for feature; it
// stops and returns the current node once no child is chosen (§4.6).
func (s *SemanticRouter) FindBestParent(ctx context.Context, feature graph.SemanticFeature, root string) (string, error) {
	current := root
	for {
		children, err := s.Store.GetChildren(ctx, current)
		if err != nil {
			return "", rpgerr.Store(err, "list children for routing")
		}
		var candidates []*graph.Node
		for _, c := range children {
			if c.IsHighLevel() {
				candidates = append(candidates, c)
			}
		}
		if len(candidates) == 0 {
			return current, nil
		}

		next, err := s.choose(ctx, feature, candidates)
		if err != nil {
			return "", err
		}
		if next == "" {
			return current, nil
		}
		current = next
	}
}

func (s *SemanticRouter) choose(ctx context.Context, feature graph.SemanticFeature, candidates []*graph.Node) (string, error) {
	if s.Backend != nil {
		return s.chooseWithLLM(ctx, feature, candidates)
	}
	return s.chooseWithEmbeddings(ctx, feature, candidates)
}

func (s *SemanticRouter) chooseWithLLM(ctx context.Context, feature graph.SemanticFeature, candidates []*graph.Node) (string, error) {
	var sb strings.Builder
	sb.WriteString("New entity: " + feature.Description + "\n\nCandidate parents:\n")
	for i, c := range candidates {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(": ")
		sb.WriteString(c.Feature.Description)
		sb.WriteString("\n")
	}
	sb.WriteString("\nWhich candidate index is the most semantically compatible parent? " +
		"Respond with {\"index\": <int>} or {\"index\": null} if none fit, wrapped in <solution></solution>.")

	var choice struct {
		Index *int `json:"index"`
	}
	err := llm.CallWithSolution(ctx, s.Backend, llm.Request{Prompt: sb.String(), MaxTokens: 64},
		func(payload string) error { return json.Unmarshal([]byte(payload), &choice) })
	if err != nil {
		return "", rpgerr.LLM(err, "semantic routing")
	}
	if choice.Index == nil || *choice.Index < 0 || *choice.Index >= len(candidates) {
		return "", nil
	}
	return candidates[*choice.Index].ID, nil
}

// chooseWithEmbeddings is the heuristic fallback: cosine similarity between
// feature's embedding and each candidate's, picking the best match above a
// minimal similarity floor.
func (s *SemanticRouter) chooseWithEmbeddings(ctx context.Context, feature graph.SemanticFeature, candidates []*graph.Node) (string, error) {
	if s.Embedder == nil {
		return "", nil
	}
	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, feature.Description)
	for _, c := range candidates {
		texts = append(texts, c.Feature.Description)
	}
	vectors, err := s.Embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		return "", nil
	}

	target := vectors[0]
	best := -1
	bestScore := 0.2 // minimal similarity floor, no match returns "none"
	for i, c := range candidates {
		score := cosineSimilarity(target, vectors[i+1])
		if score > bestScore {
			bestScore = score
			best = i
		}
		_ = c
	}
	if best < 0 {
		return "", nil
	}
	return candidates[best].ID, nil
}

// cosineSimilarity is the shared similarity function also used by
// Evolution's embedding-backed semantic-distance computation (§4.9).
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineSimilarity exports cosineSimilarity for callers outside the package
// (Evolution's drift computation).
func CosineSimilarity(a, b []float32) float64 { return cosineSimilarity(a, b) }
