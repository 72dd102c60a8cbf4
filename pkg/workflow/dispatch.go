package workflow

import (
	"context"
	"sync"
	"time"

	"lineadvisor.app/advisor/pkg/expert"
)

// maxParallelExperts bounds how many expert adapters run concurrently for
// one turn. Three is the whole roster today, but the semaphore keeps the
// dispatch step correct if a future expert pool grows past it.
const maxParallelExperts = 3

type dispatchResult struct {
	expertName string
	response   *expert.Response
	err        error
}

// dispatch runs systemPrompt/userPrompt against every named expert
// concurrently, bounded by a semaphore, and collects results into a
// pre-sized slice indexed by dispatch order — the same
// WaitGroup-plus-buffered-channel-semaphore shape used for fanning out
// concurrent tool calls elsewhere in this codebase's lineage. Each expert
// call gets its own deadline derived from ctx so one hung provider can't
// stall the others past expertTimeout.
func dispatch(ctx context.Context, registry *expert.Registry, names []string, systemPrompt, userPrompt string, expertTimeout time.Duration) []dispatchResult {
	results := make([]dispatchResult, len(names))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallelExperts)

	for i, name := range names {
		adapter, ok := registry.Get(name)
		if !ok {
			results[i] = dispatchResult{expertName: name, err: errExpertNotConfigured}
			continue
		}

		wg.Add(1)
		go func(idx int, expertName string, a expert.Adapter) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx := ctx
			if expertTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, expertTimeout)
				defer cancel()
			}

			resp, err := a.Ask(callCtx, systemPrompt, userPrompt)
			results[idx] = dispatchResult{expertName: expertName, response: resp, err: err}
		}(i, name, adapter)
	}

	wg.Wait()
	return results
}
