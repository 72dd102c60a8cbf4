// Package expert wraps the three dispatchable provider-backed LLM clients in
// common/llm (experts A, B, C) behind one Adapter contract: a persona system prompt and a user prompt in,
// a scored Response or a typed Error out. Retry and circuit-breaking live
// here, one layer above the raw provider client, so every expert gets the
// same resilience behavior regardless of which SDK backs it.
package expert

import (
	"context"
	"strings"

	"lineadvisor.app/advisor/common/llm"
)

// Response is one expert's answer to a turn, scored with a confidence
// heuristic since none of the four providers return a native confidence
// value.
type Response struct {
	ExpertName       string
	Content          string
	Confidence       float64
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Adapter is a single expert's entry point. Implementations hide retry,
// circuit-breaking, and provider-specific request shaping behind this one
// method; callers only ever see a *Response or a *Error.
type Adapter interface {
	Name() string
	Ask(ctx context.Context, systemPrompt, userPrompt string) (*Response, error)
}

// baseConfidence is the per-provider starting point for the confidence
// heuristic before the length adjustment is applied. Values mirror the
// relative verbosity/calibration the three backing providers are known for
// in practice; none of this is measured per-call, it's a static prior.
var baseConfidence = map[string]float64{
	"A": 0.80, // OpenAI
	"B": 0.85, // Anthropic
	"C": 0.70, // Bedrock
	"D": 0.75, // moderator, when it answers directly
}

const (
	confidenceFloor   = 0.3
	confidenceCeiling = 0.95

	shortResponseChars = 200  // below this, confidence is penalized
	longResponseChars  = 1500 // above this, confidence gets a small bonus
)

// computeConfidence derives a confidence score from the expert's identity
// and the length of its response: a very short answer reads as a hedge or a
// truncated reply, and is penalized; a substantive answer gets a small
// bonus. The result is always clamped to [confidenceFloor, confidenceCeiling].
func computeConfidence(expertName string, content string) float64 {
	score := baseConfidence[expertName]
	if score == 0 {
		score = 0.75
	}

	n := len(strings.TrimSpace(content))
	switch {
	case n == 0:
		score -= 0.3
	case n < shortResponseChars:
		score -= 0.1
	case n > longResponseChars:
		score += 0.05
	}

	if score < confidenceFloor {
		score = confidenceFloor
	}
	if score > confidenceCeiling {
		score = confidenceCeiling
	}
	return score
}

// directAdapter calls a common/llm.AgentClient with no resilience layer.
// The registry wraps it with retry + circuit breaking (see breaker.go) for
// each of A, B, C. The moderator's AgentClient does not go through this
// type; pkg/moderator calls that client directly and has its own
// degrade-on-parse-failure handling instead.
type directAdapter struct {
	name   string
	client llm.AgentClient
}

func newDirectAdapter(name string, client llm.AgentClient) *directAdapter {
	return &directAdapter{name: name, client: client}
}

func (a *directAdapter) Name() string { return a.name }

func (a *directAdapter) Ask(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	resp, err := a.client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    2000,
		Temperature:  llm.Temp(0.3),
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, &Error{Kind: KindEmptyResponse, Err: errEmptyResponse, Retryable: true}
	}

	return &Response{
		ExpertName:       a.name,
		Content:          resp.Content,
		Confidence:       computeConfidence(a.name, resp.Content),
		Model:            a.client.Model(),
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
	}, nil
}
