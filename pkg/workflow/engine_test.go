package workflow_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/moderator"
	"lineadvisor.app/advisor/pkg/workflow"
)

type fakeAdapter struct {
	name string
	resp *expert.Response
	err  error
}

func (a *fakeAdapter) Name() string { return a.name }
func (a *fakeAdapter) Ask(ctx context.Context, systemPrompt, userPrompt string) (*expert.Response, error) {
	return a.resp, a.err
}

type fakeModerator struct {
	result moderator.Result
	err    error
}

func (m *fakeModerator) Moderate(ctx context.Context, issueCode string, responses []expert.Response) (moderator.Result, error) {
	return m.result, m.err
}

var _ = Describe("Engine.Run", func() {
	var dict *classify.Dictionary

	BeforeEach(func() {
		var err error
		dict, err = classify.LoadDictionary()
		Expect(err).NotTo(HaveOccurred())
	})

	It("runs the full graph and returns a moderated recommendation", func() {
		registry := expert.NewRegistryFromAdapters(map[string]expert.Adapter{
			"A": &fakeAdapter{name: "A", resp: &expert.Response{ExpertName: "A", Content: "replace the bearing", Confidence: 0.8}},
			"B": &fakeAdapter{name: "B", resp: &expert.Response{ExpertName: "B", Content: "check valve clearance", Confidence: 0.75}},
		})
		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   registry,
			Moderator:  &fakeModerator{result: moderator.Result{Diagnosis: "synthesized diagnosis", Confidence: 0.9, DebateRounds: 1}},
			MaxExperts: 3,
		}

		rec, err := engine.Run(context.Background(), workflow.Input{ReportText: "engine makes an abnormal noise"})

		Expect(err).NotTo(HaveOccurred())
		Expect(rec.IssueCode).To(Equal("ASBP-ENGINE-NOISE"))
		Expect(rec.Diagnosis).To(Equal("synthesized diagnosis"))
		Expect(rec.StepsCompleted).To(ContainElement("moderate"))
	})

	It("falls back to the highest-confidence expert when the moderator fails", func() {
		registry := expert.NewRegistryFromAdapters(map[string]expert.Adapter{
			"A": &fakeAdapter{name: "A", resp: &expert.Response{ExpertName: "A", Content: "low confidence answer", Confidence: 0.4}},
			"B": &fakeAdapter{name: "B", resp: &expert.Response{ExpertName: "B", Content: "high confidence answer", Confidence: 0.9}},
		})
		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   registry,
			Moderator:  &fakeModerator{err: errors.New("moderator unavailable")},
			MaxExperts: 3,
		}

		rec, err := engine.Run(context.Background(), workflow.Input{ReportText: "an unrecognized issue with no dictionary match", TurnCount: 2})

		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Fallback).To(BeTrue())
		Expect(rec.Diagnosis).To(Equal("high confidence answer"))
	})

	It("returns a no-diagnosis recommendation when every dispatched expert fails", func() {
		registry := expert.NewRegistryFromAdapters(map[string]expert.Adapter{
			"A": &fakeAdapter{name: "A", err: &expert.Error{Kind: expert.KindTimeout, Err: errors.New("timed out"), Retryable: true}},
		})
		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   registry,
			Moderator:  &fakeModerator{},
			MaxExperts: 1,
		}

		rec, err := engine.Run(context.Background(), workflow.Input{ReportText: "unrecognized issue text"})

		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Confidence).To(BeZero())
		Expect(rec.FailedExperts).To(HaveLen(1))
		Expect(rec.FailedExperts[0].Name).To(Equal("A"))
		Expect(rec.FailedExperts[0].ErrorKind).To(Equal(expert.KindTimeout))
	})

	It("returns a no-experts recommendation when the registry is empty", func() {
		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   expert.NewRegistryFromAdapters(nil),
			Moderator:  &fakeModerator{},
			MaxExperts: 3,
		}

		rec, err := engine.Run(context.Background(), workflow.Input{ReportText: "anything"})

		Expect(err).NotTo(HaveOccurred())
		Expect(rec.StepsCompleted).To(Equal([]string{"classify", "select"}))
	})
})
