package llm

import (
	"context"
	"sync"
)

// FakeBackend is a deterministic, in-memory Backend for tests. Responses are
// queued via Enqueue and returned in FIFO order; once the queue is empty it
// falls back to DefaultResponse. Every call is recorded in Requests for
// assertions.
type FakeBackend struct {
	mu              sync.Mutex
	queue           []Response
	Requests        []Request
	DefaultResponse Response
	Err             error
}

// NewFakeBackend returns an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{DefaultResponse: Response{Content: "<solution></solution>"}}
}

// Enqueue appends a canned response to be returned by the next Generate call.
func (f *FakeBackend) Enqueue(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, Response{Content: content})
}

func (f *FakeBackend) Generate(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return Response{}, f.Err
	}
	if len(f.queue) == 0 {
		return f.DefaultResponse, nil
	}
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp, nil
}

// FakeEmbeddingBackend is a deterministic EmbeddingBackend for tests: it
// hashes each text into a small fixed-dimension vector so cosine similarity
// comparisons in tests are stable and reproducible.
type FakeEmbeddingBackend struct{ Dim int }

// NewFakeEmbeddingBackend returns a FakeEmbeddingBackend producing dim-sized
// vectors (default 8 when dim is 0).
func NewFakeEmbeddingBackend(dim int) *FakeEmbeddingBackend {
	if dim <= 0 {
		dim = 8
	}
	return &FakeEmbeddingBackend{Dim: dim}
}

func (f *FakeEmbeddingBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, f.Dim)
	}
	return out, nil
}

func hashVector(text string, dim int) []float32 {
	v := make([]float32, dim)
	h := uint32(2166136261)
	for _, b := range []byte(text) {
		h ^= uint32(b)
		h *= 16777619
		v[int(h)%dim] += 1
	}
	return v
}
