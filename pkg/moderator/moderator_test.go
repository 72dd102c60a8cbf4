package moderator_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/common/llm"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/moderator"
)

// scriptedClient replays a fixed sequence of responses, one per Chat call,
// so each moderation phase can be driven independently.
type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
}

func (c *scriptedClient) Model() string { return "scripted" }

func (c *scriptedClient) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i >= len(c.replies) {
		return nil, nil
	}
	return &llm.Response{Content: c.replies[i]}, nil
}

var _ = Describe("Moderator.Moderate", func() {
	responses := []expert.Response{
		{ExpertName: "A", Content: "replace the door seal", Confidence: 0.8},
		{ExpertName: "B", Content: "check the assembly jig alignment", Confidence: 0.75},
	}

	It("runs the full three-phase debate when parsing succeeds at every phase", func() {
		client := &scriptedClient{replies: []string{
			`{"common_points":["worn seal"],"differences":[{"area":"root cause","details":["jig","seal"]}],"conflicts":[],"complementary_aspects":[]}`,
			`{"debate_rounds":[{"round":1,"topic":"root cause","discussions":[{"speaker":"A","statement":"seal wear"}]}],"consensus_points":["seal wear"],"final_agreement":"replace seal and check jig","synthesis_notes":"n/a"}`,
			`{"executive_summary":"Replace the worn door seal and verify jig alignment.","immediate_actions":[{"step":1,"action":"Replace door seal","time_estimate":"30m","priority":"high","assignee":"line tech"}],"solution_plan":[{"phase":1,"title":"Containment","actions":["isolate the line"],"duration":"1h"}],"cost_estimate":{"parts":"$40","labor":"$60","total":"$100"},"safety_precautions":["lock out before servicing"],"prevention_measures":["weekly seal inspection"],"success_indicators":["no further scratches after 5 cycles"],"alternative_approaches":["temporary shim pending replacement"],"expert_consensus":"A and B agree","confidence_level":0.88,"recommended_followup":"recheck next shift"}`,
		}}
		m := moderator.New(client, 0.3)

		result, err := m.Moderate(context.Background(), "ASBP-DOOR-SCRATCH", responses)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Diagnosis).To(Equal("Replace the worn door seal and verify jig alignment."))
		Expect(result.Confidence).To(BeNumerically("~", 0.88, 0.001))
		Expect(result.DebateRounds).To(Equal(1))
		Expect(result.Fallback).To(BeFalse())
		Expect(result.Participants).To(Equal([]string{"A", "B"}))
		Expect(result.SynthesizedAt).NotTo(BeZero())
		Expect(result.ImmediateActions).To(HaveLen(1))
		Expect(result.ImmediateActions[0].Assignee).To(Equal("line tech"))
		Expect(result.SolutionPlan).To(HaveLen(1))
		Expect(result.CostEstimate.Total).To(Equal("$100"))
		Expect(result.SuccessIndicators).To(ContainElement("no further scratches after 5 cycles"))
	})

	It("degrades to the highest-confidence raw answer when a phase fails to parse", func() {
		client := &scriptedClient{replies: []string{"not json"}}
		m := moderator.New(client, 0.3)

		result, err := m.Moderate(context.Background(), "ASBP-DOOR-SCRATCH", responses)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Fallback).To(BeTrue())
		Expect(result.Diagnosis).To(Equal("replace the door seal"))
	})

	It("restructures a single expert's response without running a debate", func() {
		client := &scriptedClient{replies: []string{
			`{"executive_summary":"Replace the worn door seal.","immediate_actions":[],"safety_precautions":[],"prevention_measures":[],"expert_consensus":"A alone","confidence_level":0.8,"recommended_followup":"n/a"}`,
		}}
		m := moderator.New(client, 0.3)

		result, err := m.Moderate(context.Background(), "ASBP-DOOR-SCRATCH", responses[:1])

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Diagnosis).To(Equal("Replace the worn door seal."))
		Expect(result.Fallback).To(BeFalse())
	})

	It("falls back to the single expert's raw answer when restructuring fails", func() {
		client := &scriptedClient{replies: []string{"not json"}}
		m := moderator.New(client, 0.3)

		result, err := m.Moderate(context.Background(), "ASBP-DOOR-SCRATCH", responses[:1])

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Fallback).To(BeTrue())
		Expect(result.Diagnosis).To(Equal("replace the door seal"))
	})

	It("errors when there are no responses to moderate", func() {
		m := moderator.New(&scriptedClient{}, 0.3)

		_, err := m.Moderate(context.Background(), "ASBP-DOOR-SCRATCH", nil)

		Expect(err).To(HaveOccurred())
	})
})
