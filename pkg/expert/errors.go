package expert

import (
	"context"
	"errors"
	"strings"

	"lineadvisor.app/advisor/common/llm"
)

// ErrorKind classifies an expert adapter failure into the taxonomy the
// workflow engine and moderator branch on.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "TIMEOUT"
	KindRateLimit      ErrorKind = "RATE_LIMIT"
	KindAuthError      ErrorKind = "AUTH_ERROR"
	KindEmptyResponse  ErrorKind = "EMPTY_RESPONSE"
	KindTransportError ErrorKind = "TRANSPORT_ERROR"
	KindBadRequest     ErrorKind = "BAD_REQUEST"
)

var errEmptyResponse = errors.New("expert: provider returned an empty response")

// Error is the typed failure an Adapter returns. Retryable marks the
// transient classes a caller may retry: TIMEOUT, RATE_LIMIT,
// TRANSPORT_ERROR, and EMPTY_RESPONSE. AUTH_ERROR and BAD_REQUEST are
// permanent and are not retried; AUTH_ERROR also forces the adapter's
// circuit breaker open.
type Error struct {
	Kind      ErrorKind
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a raw provider error into the adapter error taxonomy. It
// prefers a concrete HTTP status code when the provider SDK exposes one
// (openai-go does, via llm.StatusCode) and falls back to matching on the
// error text for providers whose SDK error types aren't uniformly
// inspectable across anthropic-sdk-go, the Bedrock Converse API, and
// langchaingo.
func classify(ctx context.Context, err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err, Retryable: true}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransportError, Err: err, Retryable: false}
	}

	if code := llm.StatusCode(err); code != 0 {
		return &Error{Kind: kindForStatus(code), Err: err, Retryable: retryableForStatus(code)}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return &Error{Kind: KindRateLimit, Err: err, Retryable: true}
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "authenticationerror") || strings.Contains(msg, "accessdenied"):
		return &Error{Kind: KindAuthError, Err: err, Retryable: false}
	case strings.Contains(msg, "400") || strings.Contains(msg, "validationexception") || strings.Contains(msg, "invalid"):
		return &Error{Kind: KindBadRequest, Err: err, Retryable: false}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &Error{Kind: KindTimeout, Err: err, Retryable: true}
	default:
		return &Error{Kind: KindTransportError, Err: err, Retryable: true}
	}
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindAuthError
	case code == 429:
		return KindRateLimit
	case code == 400 || code == 422:
		return KindBadRequest
	case code >= 500:
		return KindTransportError
	default:
		return KindTransportError
	}
}

func retryableForStatus(code int) bool {
	return code == 429 || code >= 500
}
