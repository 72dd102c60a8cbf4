package expert

import (
	"context"
	"fmt"

	"lineadvisor.app/advisor/common/llm"
	"lineadvisor.app/advisor/core/config"
)

// Registry holds the three dispatchable expert adapters, keyed by expert
// name (A, B, C). The moderator (D) is built separately by pkg/moderator
// since it has its own degrade-on-parse-failure handling instead of a
// retry/breaker decorator.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds adapters for every expert whose API key is configured.
// An expert with no key is simply absent from the registry; pkg/selector
// drops it from the candidate list, so it is never dispatched and does not
// appear among a turn's failed experts.
func NewRegistry(ctx context.Context, cfg config.Config, maxRetries uint) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter)}

	if cfg.ExpertA.APIKey != "" {
		client, err := llm.NewOpenAIClient(llm.Config{
			APIKey: cfg.ExpertA.APIKey, BaseURL: cfg.ExpertA.BaseURL, Model: cfg.ExpertA.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("expert A: %w", err)
		}
		r.adapters["A"] = newResilientAdapter(newDirectAdapter("A", client), maxRetries)
	}

	if cfg.ExpertB.APIKey != "" {
		client, err := llm.NewAnthropicClient(llm.Config{
			APIKey: cfg.ExpertB.APIKey, BaseURL: cfg.ExpertB.BaseURL, Model: cfg.ExpertB.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("expert B: %w", err)
		}
		r.adapters["B"] = newResilientAdapter(newDirectAdapter("B", client), maxRetries)
	}

	if cfg.ExpertC.APIKey != "" {
		client, err := llm.NewBedrockClient(ctx, llm.Config{
			APIKey: cfg.ExpertC.APIKey, Model: cfg.ExpertC.Model, Region: cfg.ExpertC.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("expert C: %w", err)
		}
		r.adapters["C"] = newResilientAdapter(newDirectAdapter("C", client), maxRetries)
	}

	return r, nil
}

// NewRegistryFromAdapters builds a Registry directly from a set of already
// constructed adapters, bypassing provider configuration. Used by tests and
// by any caller assembling adapters from something other than config.Config.
func NewRegistryFromAdapters(adapters map[string]Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for name, a := range adapters {
		r.adapters[name] = a
	}
	return r
}

// Get returns the adapter for an expert name, or false if that expert isn't
// configured.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the configured expert names in the canonical A, B, C order.
func (r *Registry) Names() []string {
	var names []string
	for _, n := range []string{"A", "B", "C"} {
		if _, ok := r.adapters[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Len reports how many experts are configured.
func (r *Registry) Len() int { return len(r.adapters) }
