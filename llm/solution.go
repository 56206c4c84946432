package llm

import (
	"context"
	"strings"

	"github.com/maxbolgarin/erro"
)

const solutionOpen = "<solution>"
const solutionClose = "</solution>"

// ExtractSolution pulls the payload out of the <solution>...</solution>
// wrapper every LLM prompt boundary in this system uses (§6). ok is false
// when the tags are missing or malformed.
func ExtractSolution(text string) (string, bool) {
	start := strings.Index(text, solutionOpen)
	if start < 0 {
		return "", false
	}
	start += len(solutionOpen)
	end := strings.Index(text[start:], solutionClose)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

// correctiveSuffix is appended to the prompt on the single retry attempt
// the shared parser makes after a parse failure (§6, §4.2).
const correctiveSuffix = "\n\nYour previous response could not be parsed. Reply again with ONLY the " +
	"requested JSON wrapped in <solution>...</solution> tags, no other text."

// CallWithSolution issues req against backend, extracts and hands the
// <solution> payload to parse. On parse failure (either the tags are
// missing or parse returns an error) it retries once with a corrective
// suffix appended to the prompt; a second failure is returned as an LLMError
// by the caller.
func CallWithSolution(ctx context.Context, backend Backend, req Request, parse func(payload string) error) error {
	resp, err := backend.Generate(ctx, req)
	if err != nil {
		return erro.Wrap(err, "llm generate")
	}
	if payload, ok := ExtractSolution(resp.Content); ok {
		if perr := parse(payload); perr == nil {
			return nil
		}
	}

	retryReq := req
	retryReq.Prompt = req.Prompt + correctiveSuffix
	resp, err = backend.Generate(ctx, retryReq)
	if err != nil {
		return erro.Wrap(err, "llm generate retry")
	}
	payload, ok := ExtractSolution(resp.Content)
	if !ok {
		return erro.New("llm response missing <solution> tags after retry")
	}
	if err := parse(payload); err != nil {
		return erro.Wrap(err, "parse llm response after retry")
	}
	return nil
}
