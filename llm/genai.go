package llm

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/maxbolgarin/erro"
	"google.golang.org/genai"

	"github.com/viant/rpgraph/internal/rlog"
)

const defaultModel = "gemini-2.5-flash"

// GenaiConfig configures a genai-backed Backend, mirroring codry's
// model.ModelConfig field set.
type GenaiConfig struct {
	APIKey   string
	Model    string
	ProxyURL string
}

// GenaiBackend is the concrete Backend implementation over
// google.golang.org/genai, adapted from codry's internal/agent/gemini.Agent.
type GenaiBackend struct {
	client *genai.Client
	model  string
	log    logger
}

type logger interface {
	Error(msg string, args ...any)
}

// NewGenaiBackend dials a genai client for cfg.
func NewGenaiBackend(ctx context.Context, cfg GenaiConfig) (*GenaiBackend, error) {
	if cfg.APIKey == "" {
		return nil, erro.New("genai API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, erro.Wrap(err, "parse proxy url")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		return nil, erro.Wrap(err, "create genai client")
	}

	return &GenaiBackend{client: client, model: model, log: rlog.Named("llm.genai")}, nil
}

// Generate calls the configured model, translated to Response the same way
// codry's Agent.CallAPI reads Gemini's Candidates/UsageMetadata shape.
func (b *GenaiBackend) Generate(ctx context.Context, req Request) (Response, error) {
	temp := req.Temperature
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "text/plain",
		Temperature:       &temp,
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}},
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}}, cfg)
	if err != nil {
		wrapped := handleAPIError(err)
		b.log.Error("genai generate failed", "error", wrapped)
		return Response{}, wrapped
	}
	if len(result.Candidates) == 0 {
		return Response{}, erro.New("no candidates returned from genai backend")
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Response{}, erro.New("invalid response structure from genai backend")
	}

	return Response{
		Content:          candidate.Content.Parts[0].Text,
		PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
	}, nil
}

func handleAPIError(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "location is not supported"):
		return erro.New("region not supported by genai backend")
	case strings.Contains(errStr, "429"):
		return erro.New("rate limit exceeded")
	case strings.Contains(errStr, "401"), strings.Contains(errStr, "403"):
		return erro.New("authentication failed")
	case strings.Contains(errStr, "503"):
		return erro.New("genai backend unavailable")
	default:
		return erro.Wrap(err, "genai backend error")
	}
}
