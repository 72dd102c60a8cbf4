// Package workflow wires the diagnosis pipeline's fixed stages — classify,
// select, dispatch, moderate — into one explicit graph. The graph is
// expressed directly as a sequence of typed function calls rather than
// through a graph-execution framework: the shape never changes at runtime,
// so a framework would only add indirection.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/moderator"
	"lineadvisor.app/advisor/pkg/selector"
)

var errExpertNotConfigured = errors.New("workflow: expert not configured")

// Engine runs one turn through the fixed Classify -> Select -> Dispatch ->
// Moderate graph. Every suspension point gets its own deadline derived from
// the inbound context, so a hung provider or moderator call can't stall a
// turn past its budget: if the turn's overall deadline fires first, the
// graph unwinds with whatever stage results it already has.
type Engine struct {
	Classifier *classify.Classifier
	Registry   *expert.Registry
	Moderator  Moderator

	MaxExperts int

	TurnTimeout       time.Duration
	ClassifierTimeout time.Duration
	ExpertTimeout     time.Duration
	ModeratorTimeout  time.Duration
}

// Run executes the full graph for one turn.
func (e *Engine) Run(ctx context.Context, in Input) (*Recommendation, error) {
	if e.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.TurnTimeout)
		defer cancel()
	}

	var steps []string

	classification, err := e.classify(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	steps = append(steps, "classify")

	turnCount := in.TurnCount
	if turnCount <= 0 {
		turnCount = 1
	}
	names := selector.Select(selector.Input{
		Category:   classification.Category,
		Severity:   bestSeverity(classification),
		TurnCount:  turnCount,
		Available:  e.Registry.Names(),
		MaxExperts: e.MaxExperts,
	})
	steps = append(steps, "select")

	if len(names) == 0 {
		return &Recommendation{
			IssueCode:      classification.IssueCode,
			Diagnosis:      "No experts are currently configured; unable to produce a diagnosis.",
			Confidence:     0,
			StepsCompleted: steps,
		}, nil
	}

	systemPrompt, userPrompt := buildPrompts(classification, in)
	results := dispatch(ctx, e.Registry, names, systemPrompt, userPrompt, e.ExpertTimeout)
	steps = append(steps, "dispatch")

	var (
		responses     []expert.Response
		failedExperts []FailedExpert
	)
	failedAt := time.Now()
	for _, r := range results {
		if r.err != nil {
			failedExperts = append(failedExperts, toFailedExpert(r.expertName, r.err, failedAt))
			continue
		}
		responses = append(responses, *r.response)
	}

	if len(responses) == 0 {
		return &Recommendation{
			IssueCode:      classification.IssueCode,
			Diagnosis:      "All dispatched experts failed to respond; unable to produce a diagnosis.",
			Confidence:     0,
			StepsCompleted: steps,
			FailedExperts:  failedExperts,
		}, nil
	}

	modResult, err := e.moderate(ctx, classification.IssueCode, responses)
	if err != nil {
		// Total moderator failure: fall back to the highest-confidence
		// expert's raw answer, flagged so the caller can surface that this
		// diagnosis skipped synthesis.
		best := highestConfidence(responses)
		steps = append(steps, "moderate_failed_fallback")
		return &Recommendation{
			IssueCode:       classification.IssueCode,
			Diagnosis:       best.Content,
			Confidence:      best.Confidence,
			Fallback:        true,
			ExpertResponses: responses,
			StepsCompleted:  steps,
			FailedExperts:   failedExperts,
		}, nil
	}
	steps = append(steps, "moderate")

	return &Recommendation{
		IssueCode:    classification.IssueCode,
		Diagnosis:    modResult.Diagnosis,
		Confidence:   modResult.Confidence,
		DebateRounds: modResult.DebateRounds,
		Fallback:     modResult.Fallback,

		ImmediateActions:      modResult.ImmediateActions,
		SolutionPlan:          modResult.SolutionPlan,
		CostEstimate:          modResult.CostEstimate,
		SafetyPrecautions:     modResult.SafetyPrecautions,
		PreventionMeasures:    modResult.PreventionMeasures,
		SuccessIndicators:     modResult.SuccessIndicators,
		AlternativeApproaches: modResult.AlternativeApproaches,
		ExpertConsensus:       modResult.ExpertConsensus,
		RecommendedFollowup:   modResult.RecommendedFollowup,
		Participants:          modResult.Participants,
		SynthesizedAt:         modResult.SynthesizedAt,

		ExpertResponses: responses,
		StepsCompleted:  steps,
		FailedExperts:   failedExperts,
	}, nil
}

func (e *Engine) classify(ctx context.Context, in Input) (*classify.Classification, error) {
	if e.ClassifierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ClassifierTimeout)
		defer cancel()
	}
	return e.Classifier.Classify(ctx, in.ReportText, in.Reading)
}

func (e *Engine) moderate(ctx context.Context, issueCode string, responses []expert.Response) (moderator.Result, error) {
	if e.ModeratorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ModeratorTimeout)
		defer cancel()
	}
	return e.Moderator.Moderate(ctx, issueCode, responses)
}

func toFailedExpert(name string, err error, at time.Time) FailedExpert {
	var expertErr *expert.Error
	if errors.As(err, &expertErr) {
		return FailedExpert{Name: name, ErrorKind: expertErr.Kind, Message: expertErr.Error(), Timestamp: at}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailedExpert{Name: name, ErrorKind: expert.KindTimeout, Message: err.Error(), Timestamp: at}
	}
	return FailedExpert{Name: name, ErrorKind: expert.KindTransportError, Message: err.Error(), Timestamp: at}
}

func bestSeverity(c *classify.Classification) classify.Severity {
	if len(c.Matched) == 0 {
		return ""
	}
	return c.Matched[0].Severity
}

func highestConfidence(responses []expert.Response) expert.Response {
	best := responses[0]
	for _, r := range responses[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}

func buildPrompts(c *classify.Classification, in Input) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString("You are one of several independent experts diagnosing a manufacturing line issue. ")
	sb.WriteString("Give a concrete diagnosis and a recommended fix; be specific about root cause.")
	if c.IssueCode != "" {
		sb.WriteString(fmt.Sprintf(" The issue has been tentatively classified as %s.", c.IssueCode))
	}
	systemPrompt = sb.String()

	var ub strings.Builder
	ub.WriteString("Report: ")
	ub.WriteString(in.ReportText)
	if in.Reading != nil {
		ub.WriteString(fmt.Sprintf("\nReading: %s %s = %.2f", in.Reading.Equipment, in.Reading.Metric, in.Reading.Value))
	}
	if len(c.Retrieval.Documents) > 0 {
		ub.WriteString("\n\nRelated context:\n")
		for _, d := range c.Retrieval.Documents {
			ub.WriteString("- " + d.Title + ": " + d.Content + "\n")
		}
	}
	userPrompt = ub.String()

	return systemPrompt, userPrompt
}
