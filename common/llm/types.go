// Package llm provides a uniform, provider-agnostic chat abstraction over the
// language-model backends used by the expert adapters and the debate moderator.
package llm

import "context"

// Config holds the connection settings for one provider-backed client.
// A single Config shape is shared by every constructor in this package so
// that adapter wiring in pkg/expert stays mechanical across providers.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Region  string // used by the Bedrock client only
}

// AgentClient is a provider-backed chat client. Expert adapters and the
// moderator both talk to providers exclusively through this interface; no
// caller ever branches on which concrete provider backs a Client.
type AgentClient interface {
	Chat(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Request is one chat exchange: a persona framing (system) and the turn's
// prompt (user). Expert adapters never use multi-turn message history here,
// keeping this contract uniform across all four providers. No caller adds a
// session's prior turns to UserPrompt: each request carries only the
// current turn's prompt.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  *float64 // nil = provider default

	// SchemaName and Schema are set only for structured-JSON calls (the
	// moderator's three phases). Providers that support a strict JSON
	// schema response format honor them; the others append the schema as
	// instruction text to the prompt and rely on the caller to parse and
	// recover from a malformed reply (see pkg/moderator's degrade-on-parse
	// rule).
	SchemaName string
	Schema     any
}

// Response is a provider reply plus usage accounting.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Temp returns a pointer to a temperature value; a nil Request.Temperature
// means "use the provider default", so literal zero values need an address.
func Temp(t float64) *float64 {
	return &t
}
