package ollama

import (
	"context"
	"strings"

	"github.com/satindergrewal/voiceart/internal/logger"
)

// Refiner asks the LLM to smooth a composed prompt into natural prose.
type Refiner struct {
	client *Client
	log    *logger.Logger
}

// NewRefiner creates a Refiner backed by an Ollama client.
func NewRefiner(client *Client, log *logger.Logger) *Refiner {
	if log == nil {
		log = logger.Nop()
	}
	return &Refiner{client: client, log: log}
}

const refineSystemPrompt = `You edit prompts for a text-to-image model.

You receive one prompt that was assembled from fixed phrases and may read awkwardly (doubled spaces, stacked "featuring" clauses).

Rewrite it as ONE fluent sentence that:
- keeps every visual descriptor: style, pattern, colors, temperature, composition, detail, edges, highlights and the rendering medium
- adds no new subjects, objects, artists or styles
- stays under 80 words

Output ONLY the rewritten prompt. No quotes. No preamble.

/no_think`

// Composed prompts are short and fixed-vocabulary, so sampling stays close to
// deterministic and a fixed seed keeps repeated refinements stable.
const (
	refineTemperature = 0.2
	refineTopP        = 0.9
	refineSeed        = 42
)

// refineRequest sizes the token budget to what usable accepts: at most three
// times the input length, at roughly four characters per token.
func refineRequest(prompt string) Request {
	return Request{
		System: refineSystemPrompt,
		Prompt: prompt,
		Options: Options{
			Temperature: refineTemperature,
			TopP:        refineTopP,
			NumPredict:  3*len(prompt)/4 + 16,
			Seed:        refineSeed,
			Stop:        []string{"\n\n"},
		},
	}
}

// Refine returns a polished version of prompt, or prompt itself when the
// LLM fails or returns something unusable.
func (r *Refiner) Refine(ctx context.Context, prompt string) string {
	out, err := r.client.Generate(ctx, refineRequest(prompt))
	if err != nil {
		r.log.Warn("prompt refinement failed", "error", err)
		return prompt
	}

	out = cleanResponse(out)
	if !usable(out, prompt) {
		r.log.Warn("ollama returned unusable prompt", "response", out)
		return prompt
	}

	r.log.Debug("prompt refined", "prompt", out)
	return out
}

// usable rejects output that is empty, far shorter than the input, or runs
// away in length.
func usable(out, original string) bool {
	if len(out) < 20 || len(out) < len(original)/3 {
		return false
	}
	return len(out) <= 3*len(original)
}

// cleanResponse strips common LLM artifacts from output.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)

	// Strip thinking tags
	if idx := strings.Index(s, "</think>"); idx >= 0 {
		s = strings.TrimSpace(s[idx+len("</think>"):])
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	lower := strings.ToLower(s)
	for _, p := range []string{"here's the prompt:", "here is the prompt:", "prompt:", "rewritten prompt:"} {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			lower = strings.ToLower(s)
		}
	}

	return strings.TrimSpace(s)
}
