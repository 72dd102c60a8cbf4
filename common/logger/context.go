package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment, so turn-scoped business
// context (session id, turn id, which expert is running) appears on every log
// line without every call site threading it through by hand.
type LogFields struct {
	SessionID  *string // opaque session id (sess_<hex>)
	TurnID     *string // turn sequence id within the session
	ExpertName *string // A, B, C, or D (the moderator) while that adapter runs
	IssueCode  *string // classified issue code, once known
	Component  string  // OTel semantic-convention style, e.g. "advisor.workflow.dispatch"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.SessionID != nil {
		result.SessionID = new.SessionID
	}
	if new.TurnID != nil {
		result.TurnID = new.TurnID
	}
	if new.ExpertName != nil {
		result.ExpertName = new.ExpertName
	}
	if new.IssueCode != nil {
		result.IssueCode = new.IssueCode
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{SessionID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// The cut is by byte, so it can split a multi-byte UTF-8 character.
// Useful for logging potentially long strings like a user message or raw moderator text.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
