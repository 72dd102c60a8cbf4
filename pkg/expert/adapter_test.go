package expert

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/common/llm"
)

type fakeClient struct {
	model    string
	response *llm.Response
	err      error
}

func (f *fakeClient) Model() string { return f.model }

func (f *fakeClient) Chat(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

var _ = Describe("computeConfidence", func() {
	It("uses the provider base score for a mid-length response", func() {
		score := computeConfidence("B", strings.Repeat("x", 500))
		Expect(score).To(BeNumerically("==", 0.85))
	})

	It("penalizes a very short response", func() {
		score := computeConfidence("A", "ok")
		Expect(score).To(BeNumerically("<", baseConfidence["A"]))
	})

	It("gives a small bonus to a long response", func() {
		score := computeConfidence("C", strings.Repeat("x", 2000))
		Expect(score).To(BeNumerically(">", baseConfidence["C"]))
	})

	It("never returns below the confidence floor", func() {
		score := computeConfidence("unknown-expert", "")
		Expect(score).To(BeNumerically(">=", confidenceFloor))
	})

	It("never returns above the confidence ceiling", func() {
		score := computeConfidence("B", strings.Repeat("x", 10000))
		Expect(score).To(BeNumerically("<=", confidenceCeiling))
	})
})

var _ = Describe("directAdapter", func() {
	It("returns a scored Response on success", func() {
		client := &fakeClient{model: "test-model", response: &llm.Response{Content: "diagnosis text", PromptTokens: 10, CompletionTokens: 20}}
		a := newDirectAdapter("A", client)

		resp, err := a.Ask(context.Background(), "system", "user")

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.ExpertName).To(Equal("A"))
		Expect(resp.Content).To(Equal("diagnosis text"))
		Expect(resp.Model).To(Equal("test-model"))
		Expect(resp.Confidence).To(BeNumerically(">", 0))
	})

	It("returns a typed EMPTY_RESPONSE error on blank content", func() {
		client := &fakeClient{model: "test-model", response: &llm.Response{Content: "   "}}
		a := newDirectAdapter("A", client)

		_, err := a.Ask(context.Background(), "system", "user")

		var adapterErr *Error
		Expect(errors.As(err, &adapterErr)).To(BeTrue())
		Expect(adapterErr.Kind).To(Equal(KindEmptyResponse))
		Expect(adapterErr.Retryable).To(BeTrue())
	})

	It("classifies a provider error into the typed taxonomy", func() {
		client := &fakeClient{model: "test-model", err: errors.New("429 rate limit exceeded")}
		a := newDirectAdapter("A", client)

		_, err := a.Ask(context.Background(), "system", "user")

		var adapterErr *Error
		Expect(errors.As(err, &adapterErr)).To(BeTrue())
		Expect(adapterErr.Kind).To(Equal(KindRateLimit))
		Expect(adapterErr.Retryable).To(BeTrue())
	})
})
