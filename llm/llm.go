// Package llm is the abstract LLM/embedding boundary every component that
// needs generative or embedding calls (semantic, reorg, evolve) depends on,
// never on a concrete backend. Grounded on the teacher's equivalent split in
// maxbolgarin-codry between internal/model/interfaces.AgentAPI (the thin
// CallAPI(ctx, req) (resp, err) contract) and a concrete per-provider Agent.
package llm

import "context"

// Request is one generation call.
type Request struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
}

// Response is a generation result, mirroring codry's model.APIResponse
// token-accounting fields.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Backend is the generative call surface. Every suspension point that
// touches an LLM (§5) goes through this interface.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// EmbeddingBackend produces vector embeddings for feature-similarity use
// (C6's Semantic Router heuristic fallback, C9's drift detection).
type EmbeddingBackend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
