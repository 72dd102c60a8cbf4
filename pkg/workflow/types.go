package workflow

import (
	"context"
	"time"

	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/moderator"
)

// Input is one turn's request into the workflow engine.
type Input struct {
	ReportText string
	Reading    *classify.EquipmentReading // optional numeric sensor reading
	TurnCount  int                        // 1-based: 1 is the session's first turn
}

// FailedExpert records one dispatched expert that did not produce a usable
// response, with enough detail for the caller to explain the gap.
type FailedExpert struct {
	Name      string
	ErrorKind expert.ErrorKind
	Message   string
	Timestamp time.Time
}

// Recommendation is the workflow's final output for a turn: a synthesized
// diagnosis plus the bookkeeping the caller needs to understand how it was
// produced.
type Recommendation struct {
	IssueCode    string
	Diagnosis    string
	Confidence   float64
	DebateRounds int
	Fallback     bool // true when the moderator failed and this is the highest-confidence expert's raw answer

	ImmediateActions      []moderator.ImmediateAction
	SolutionPlan          []moderator.SolutionPhase
	CostEstimate          moderator.CostEstimate
	SafetyPrecautions     []string
	PreventionMeasures    []string
	SuccessIndicators     []string
	AlternativeApproaches []string
	ExpertConsensus       string
	RecommendedFollowup   string
	Participants          []string
	SynthesizedAt         time.Time

	ExpertResponses []expert.Response
	StepsCompleted  []string
	FailedExperts   []FailedExpert
}

// Moderator synthesizes a final recommendation from one or more expert
// responses. pkg/moderator owns the result type since it is the type's
// natural producer; the engine only needs this narrow contract.
type Moderator interface {
	Moderate(ctx context.Context, issueCode string, responses []expert.Response) (moderator.Result, error)
}
