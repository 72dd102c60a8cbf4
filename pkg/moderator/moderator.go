package moderator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"lineadvisor.app/advisor/common/llm"
	"lineadvisor.app/advisor/pkg/expert"
)

// participantDescriptions frames each expert's specialty for the debate
// prompts, the way the original moderator framed GPT/Gemini/Clova by their
// distinct strengths rather than listing them as interchangeable voices.
var participantDescriptions = map[string]string{
	"A": "comprehensive safety and compliance analysis",
	"B": "deep technical and engineering root-cause analysis",
	"C": "practical, cost-conscious shop-floor experience",
}

const (
	defaultMaxTokens  = 2500
	singleAgentTokens = 2000
)

// Moderator synthesizes the dispatched experts' independent responses into
// one final recommendation, via Expert D.
type Moderator struct {
	Client      llm.AgentClient
	Temperature float64
}

// New builds a Moderator around Expert D's client.
func New(client llm.AgentClient, temperature float64) *Moderator {
	return &Moderator{Client: client, Temperature: temperature}
}

// Moderate synthesizes a final recommendation from the given expert
// responses. A single response skips debate and goes straight to
// restructuring; two or more run the full analyze -> debate -> synthesize
// pipeline. A phase that fails (a chat error or an unparseable reply) does
// not abort the turn: the first such failure ends the pipeline and returns
// the highest-confidence expert's raw answer with Fallback set. The later
// phases are not run, and a failed analysis or debate phase is not replaced
// by an empty result to continue with.
func (m *Moderator) Moderate(ctx context.Context, issueCode string, responses []expert.Response) (Result, error) {
	if len(responses) == 0 {
		return Result{}, fmt.Errorf("moderator: no responses to moderate")
	}

	// Sort by fixed expert-name ordering before anything downstream reads
	// this slice, so the same set of responses always produces the same
	// prompts and the same participant ordering regardless of which
	// goroutine finished dispatch first.
	sorted := make([]expert.Response, len(responses))
	copy(sorted, responses)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ExpertName < sorted[j].ExpertName })
	participants := participantNames(sorted)

	if m.Client == nil {
		slog.WarnContext(ctx, "moderator: no client configured, falling back")
		return m.fallback(sorted, participants), nil
	}
	if len(sorted) == 1 {
		return m.moderateSingle(ctx, sorted[0], participants)
	}

	analysis, err := m.analyzeDifferences(ctx, sorted)
	if err != nil {
		slog.WarnContext(ctx, "moderator: difference analysis failed, falling back", "error", err)
		return m.fallback(sorted, participants), nil
	}

	debate, err := m.simulateDebate(ctx, sorted, analysis)
	if err != nil {
		slog.WarnContext(ctx, "moderator: debate simulation failed, falling back", "error", err)
		return m.fallback(sorted, participants), nil
	}

	solution, err := m.synthesize(ctx, sorted, debate)
	if err != nil {
		slog.WarnContext(ctx, "moderator: synthesis failed, falling back", "error", err)
		return m.fallback(sorted, participants), nil
	}

	return fromFinalSolution(solution, len(debate.Rounds), false, participants), nil
}

func participantNames(responses []expert.Response) []string {
	names := make([]string, len(responses))
	for i, r := range responses {
		names[i] = r.ExpertName
	}
	return names
}

// fromFinalSolution carries every field phase 3 produced into the
// workflow-facing Result, instead of only the executive summary and
// confidence level.
func fromFinalSolution(solution *finalSolution, debateRounds int, fallback bool, participants []string) Result {
	actions := make([]ImmediateAction, len(solution.ImmediateActions))
	for i, a := range solution.ImmediateActions {
		actions[i] = ImmediateAction{
			Step:         a.Step,
			Action:       a.Action,
			TimeEstimate: a.TimeEstimate,
			Priority:     a.Priority,
			Assignee:     a.Assignee,
		}
	}

	plan := make([]SolutionPhase, len(solution.SolutionPlan))
	for i, p := range solution.SolutionPlan {
		plan[i] = SolutionPhase{
			Phase:    p.Phase,
			Title:    p.Title,
			Actions:  p.Actions,
			Duration: p.Duration,
		}
	}

	return Result{
		Diagnosis:    solution.ExecutiveSummary,
		Confidence:   solution.ConfidenceLevel,
		DebateRounds: debateRounds,
		Fallback:     fallback,

		ImmediateActions: actions,
		SolutionPlan:     plan,
		CostEstimate: CostEstimate{
			Parts: solution.CostEstimate.Parts,
			Labor: solution.CostEstimate.Labor,
			Total: solution.CostEstimate.Total,
		},
		SafetyPrecautions:     solution.SafetyPrecautions,
		PreventionMeasures:    solution.PreventionMeasures,
		SuccessIndicators:     solution.SuccessIndicators,
		AlternativeApproaches: solution.AlternativeApproaches,
		ExpertConsensus:       solution.ExpertConsensus,
		RecommendedFollowup:   solution.RecommendedFollowup,

		Participants:  participants,
		SynthesizedAt: time.Now(),
	}
}

func (m *Moderator) analyzeDifferences(ctx context.Context, responses []expert.Response) (*differenceAnalysis, error) {
	var sb strings.Builder
	sb.WriteString("Compare the following independent expert responses to the same diagnostic question.\n\n")
	for _, r := range responses {
		sb.WriteString(fmt.Sprintf("%s (%s, confidence %.2f):\n%s\n\n", r.ExpertName, participantDescriptions[r.ExpertName], r.Confidence, r.Content))
	}
	sb.WriteString("Identify what they agree on, where they differ, any direct conflicts, and where one response complements another.")

	var out differenceAnalysis
	if err := m.call(ctx, sb.String(), llm.GenerateSchema[differenceAnalysis](), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Moderator) simulateDebate(ctx context.Context, responses []expert.Response, analysis *differenceAnalysis) (*debateResult, error) {
	var sb strings.Builder
	sb.WriteString("Simulate a short debate between the following experts to reach consensus on the diagnosis.\n\n")
	for _, r := range responses {
		content := r.Content
		if len(content) > 500 {
			content = content[:500]
		}
		sb.WriteString(fmt.Sprintf("%s (%s): %s\n\n", r.ExpertName, participantDescriptions[r.ExpertName], content))
	}
	sb.WriteString("Known disagreements: ")
	for _, d := range analysis.Differences {
		sb.WriteString(d.Area + "; ")
	}
	sb.WriteString("\n\nProduce two or three rounds of debate that resolve these disagreements into a final agreement.")

	var out debateResult
	if err := m.call(ctx, sb.String(), llm.GenerateSchema[debateResult](), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *Moderator) synthesize(ctx context.Context, responses []expert.Response, debate *debateResult) (*finalSolution, error) {
	var sb strings.Builder
	sb.WriteString("Synthesize a final solution from this expert debate.\n\n")
	sb.WriteString("Final agreement: " + debate.FinalAgreement + "\n")
	sb.WriteString("Consensus points: " + strings.Join(debate.ConsensusPoints, "; ") + "\n\n")
	sb.WriteString("Produce an executive summary, immediate actions, safety precautions, prevention measures, ")
	sb.WriteString("the expert consensus, an overall confidence level between 0 and 1, and a recommended followup.")

	var out finalSolution
	if err := m.call(ctx, sb.String(), llm.GenerateSchema[finalSolution](), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// moderateSingle restructures one expert's raw answer into the same shape a
// multi-expert synthesis would have produced, without running a debate.
func (m *Moderator) moderateSingle(ctx context.Context, r expert.Response, participants []string) (Result, error) {
	prompt := fmt.Sprintf(
		"Restructure the following %s expert response into an executive summary and a confidence level.\n\nResponse: %s",
		r.ExpertName, r.Content,
	)

	var out finalSolution
	if err := m.call(ctx, prompt, llm.GenerateSchema[finalSolution](), &out); err != nil {
		slog.WarnContext(ctx, "moderator: single-response restructuring failed, returning raw answer", "error", err)
		return Result{
			Diagnosis:     r.Content,
			Confidence:    r.Confidence,
			Fallback:      true,
			Participants:  participants,
			SynthesizedAt: time.Now(),
		}, nil
	}

	return fromFinalSolution(&out, 0, false, participants), nil
}

// fallback picks the highest-confidence response's raw answer when debate
// synthesis could not be completed.
func (m *Moderator) fallback(responses []expert.Response, participants []string) Result {
	best := responses[0]
	for _, r := range responses[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return Result{
		Diagnosis:     best.Content,
		Confidence:    best.Confidence,
		Fallback:      true,
		Participants:  participants,
		SynthesizedAt: time.Now(),
	}
}

func (m *Moderator) call(ctx context.Context, prompt string, schema any, out any) error {
	temp := m.Temperature
	resp, err := m.Client.Chat(ctx, llm.Request{
		SystemPrompt: "You are the moderator synthesizing independent expert diagnoses. Respond with JSON only.",
		UserPrompt:   prompt,
		MaxTokens:    defaultMaxTokens,
		Temperature:  &temp,
		SchemaName:   "moderator_phase",
		Schema:       schema,
	})
	if err != nil {
		return fmt.Errorf("moderator: chat: %w", err)
	}
	if err := json.Unmarshal([]byte(resp.Content), out); err != nil {
		return fmt.Errorf("moderator: parse response: %w", err)
	}
	return nil
}
