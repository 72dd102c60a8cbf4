package expert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
)

// resilientAdapter wraps an Adapter with a circuit breaker and a jittered
// retry, mirroring the two decorators the teacher's orchestrator applied to
// its tool-calling engagements. An AUTH_ERROR forces the breaker open at
// once; like an opening caused by a run of five consecutive failures, it
// stays open for the breaker's Timeout (2 minutes) and then half-opens, so
// the adapter is tried again after that and a fresh AUTH_ERROR opens it
// again. The breaker is not held open for the life of the process. The retrier
// only re-attempts the transient kinds (TIMEOUT, RATE_LIMIT,
// TRANSPORT_ERROR, EMPTY_RESPONSE).
type resilientAdapter struct {
	inner   Adapter
	breaker *gobreaker.CircuitBreaker
	retries uint
}

// newResilientAdapter builds the retry+breaker decorator around inner.
// maxRetries bounds the number of additional attempts after the first.
func newResilientAdapter(inner Adapter, maxRetries uint) *resilientAdapter {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("expert circuit breaker state change", "expert", name, "from", from.String(), "to", to.String())
		},
	}

	return &resilientAdapter{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		retries: maxRetries,
	}
}

func (a *resilientAdapter) Name() string { return a.inner.Name() }

func (a *resilientAdapter) Ask(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	operation := func() (*Response, error) {
		result, err := a.breaker.Execute(func() (interface{}, error) {
			return a.inner.Ask(ctx, systemPrompt, userPrompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, backoff.Permanent(&Error{Kind: KindTransportError, Err: err, Retryable: false})
			}

			var adapterErr *Error
			if errors.As(err, &adapterErr) {
				if adapterErr.Kind == KindAuthError {
					a.tripPermanently()
				}
				if !adapterErr.Retryable {
					return nil, backoff.Permanent(adapterErr)
				}
				return nil, adapterErr
			}
			return nil, err
		}
		return result.(*Response), nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithMaxTries(a.retries+1),
		backoff.WithBackOff(backoff.NewExponentialBackOff()))
}

// tripPermanently forces the breaker open so a bad credential isn't retried
// on the turns that follow within the breaker's Timeout; gobreaker has no
// explicit "force open" call, so this drives enough synthetic failures to
// cross ReadyToTrip's threshold. The breaker still half-opens once Timeout
// has passed.
func (a *resilientAdapter) tripPermanently() {
	for i := 0; i < 5; i++ {
		_, _ = a.breaker.Execute(func() (interface{}, error) {
			return nil, errAuthTripped
		})
	}
}

var errAuthTripped = errors.New("expert: auth error, circuit held open")
