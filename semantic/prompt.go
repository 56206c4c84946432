package semantic

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/maxbolgarin/erro"

	"github.com/viant/rpgraph/ast"
	"github.com/viant/rpgraph/graph"
	"github.com/viant/rpgraph/llm"
	"github.com/viant/rpgraph/rpgerr"
)

// systemPrompt enforces the 11 feature-naming rules of §4.2 LLM mode.
const systemPrompt = `You write short behavioral descriptions of code entities.
Rules:
1. lowercase only
2. 3 to 8 words
3. verb + object phrasing ("parse config file", not "config file parser")
4. exactly one responsibility per description; if the entity does more than
   one thing, put the extra responsibility in subFeatures instead
5. no punctuation
6. no implementation detail (no variable names, no data structures)
7. no library or framework names
8. no method chaining described as prose
9. keywords are short single tokens, most important first
10. subFeatures are additional verb+object phrases, ordered
11. respond with ONLY JSON wrapped in <solution>...</solution> tags`

type llmFeature struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	SubFeatures []string `json:"subFeatures"`
}

func (x *Extractor) extractWithLLM(ctx context.Context, e ast.CodeEntity) (graph.SemanticFeature, error) {
	prompt := "Entity: " + string(e.Kind) + " " + e.QualifiedName + "\n\nSource:\n" + e.Body +
		"\n\nRespond with a single JSON object {\"description\":...,\"keywords\":[...],\"subFeatures\":[...]} " +
		"wrapped in <solution></solution>."

	var out llmFeature
	err := llm.CallWithSolution(ctx, x.Backend, llm.Request{SystemPrompt: systemPrompt, Prompt: prompt, MaxTokens: 512},
		func(payload string) error { return json.Unmarshal([]byte(payload), &out) })
	if err != nil {
		return graph.SemanticFeature{}, rpgerr.LLM(err, "extract feature for "+e.QualifiedName)
	}
	return normalizeFeature(graph.SemanticFeature{Description: out.Description, Keywords: out.Keywords, SubFeatures: out.SubFeatures}), nil
}

func (x *Extractor) extractBatchLLM(ctx context.Context, filePath string, batch []ast.CodeEntity) ([]graph.SemanticFeature, error) {
	if x.Backend == nil {
		out := make([]graph.SemanticFeature, len(batch))
		for i, e := range batch {
			out[i] = heuristicFeature(e)
		}
		return out, nil
	}

	var sb strings.Builder
	sb.WriteString("Describe each of the following entities, in the same order. Respond with a JSON array of the same length, ")
	sb.WriteString("each element {\"description\":...,\"keywords\":[...],\"subFeatures\":[...]}, wrapped in <solution></solution>.\n\n")
	for i, e := range batch {
		sb.WriteString("Entity ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(": ")
		sb.WriteString(string(e.Kind))
		sb.WriteString(" ")
		sb.WriteString(e.QualifiedName)
		sb.WriteString("\nSource:\n")
		sb.WriteString(e.Body)
		sb.WriteString("\n\n")
	}

	var out []llmFeature
	err := llm.CallWithSolution(ctx, x.Backend, llm.Request{SystemPrompt: systemPrompt, Prompt: sb.String(), MaxTokens: 4096},
		func(payload string) error {
			var parsed []llmFeature
			if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
				return err
			}
			if len(parsed) != len(batch) {
				return erro.New("batch response length mismatch")
			}
			out = parsed
			return nil
		})
	if err != nil {
		x.log.Warn("llm batch extraction failed, falling back to heuristic", "file", filePath, "error", err)
		features := make([]graph.SemanticFeature, len(batch))
		for i, e := range batch {
			features[i] = heuristicFeature(e)
		}
		return features, nil
	}

	features := make([]graph.SemanticFeature, len(batch))
	for i, f := range out {
		features[i] = normalizeFeature(graph.SemanticFeature{Description: f.Description, Keywords: f.Keywords, SubFeatures: f.SubFeatures})
	}
	return features, nil
}

var punctuationRE = regexp.MustCompile(`[.,;:!?'"()]`)

// normalizeFeature re-applies the 11 naming rules to raw LLM output and
// splits an "X and Y" description into a primary description plus an extra
// subFeature (§4.2).
func normalizeFeature(f graph.SemanticFeature) graph.SemanticFeature {
	desc := strings.ToLower(strings.TrimSpace(f.Description))
	desc = punctuationRE.ReplaceAllString(desc, "")
	desc = strings.Join(strings.Fields(desc), " ")

	var extra []string
	if idx := strings.Index(desc, " and "); idx >= 0 {
		extra = append(extra, strings.TrimSpace(desc[idx+len(" and "):]))
		desc = strings.TrimSpace(desc[:idx])
	}
	desc = clampWords(desc, 3, 8)

	keywords := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}

	subFeatures := append([]string(nil), extra...)
	for _, s := range f.SubFeatures {
		s = strings.ToLower(strings.TrimSpace(punctuationRE.ReplaceAllString(s, "")))
		if s != "" {
			subFeatures = append(subFeatures, s)
		}
	}

	return graph.SemanticFeature{Description: desc, Keywords: dedupKeywords(keywords), SubFeatures: subFeatures}
}
