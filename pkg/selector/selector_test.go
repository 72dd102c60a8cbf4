package selector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/selector"
)

var _ = Describe("Select", func() {
	base := selector.Input{
		Available:  []string{"A", "B", "C"},
		MaxExperts: 3,
	}

	It("dispatches A, B, C on a SAFETY_CRITICAL category", func() {
		in := base
		in.Category = classify.CategorySafetyCritical
		Expect(selector.Select(in)).To(Equal([]string{"A", "B", "C"}))
	})

	It("dispatches A, B, C on a critical severity issue regardless of category", func() {
		in := base
		in.Category = classify.CategoryGeneral
		in.Severity = classify.SeverityCritical
		Expect(selector.Select(in)).To(Equal([]string{"A", "B", "C"}))
	})

	It("dispatches C, A on a COST category", func() {
		in := base
		in.Category = classify.CategoryCost
		Expect(selector.Select(in)).To(Equal([]string{"C", "A"}))
	})

	It("dispatches C, A on a PRACTICAL category", func() {
		in := base
		in.Category = classify.CategoryPractical
		Expect(selector.Select(in)).To(Equal([]string{"C", "A"}))
	})

	It("dispatches B, A on a TECHNICAL category", func() {
		in := base
		in.Category = classify.CategoryTechnical
		Expect(selector.Select(in)).To(Equal([]string{"B", "A"}))
	})

	It("dispatches B, A on a NUMERIC category", func() {
		in := base
		in.Category = classify.CategoryNumeric
		Expect(selector.Select(in)).To(Equal([]string{"B", "A"}))
	})

	It("dispatches A alone on a GENERAL category on the first turn", func() {
		in := base
		in.Category = classify.CategoryGeneral
		in.TurnCount = 1
		Expect(selector.Select(in)).To(Equal([]string{"A"}))
	})

	It("dispatches A, B on a GENERAL category past the first turn", func() {
		in := base
		in.Category = classify.CategoryGeneral
		in.TurnCount = 2
		Expect(selector.Select(in)).To(Equal([]string{"A", "B"}))
	})

	It("filters the wanted list down to the experts actually available", func() {
		in := base
		in.Category = classify.CategoryCost
		in.Available = []string{"A", "B"}
		Expect(selector.Select(in)).To(Equal([]string{"A"}))
	})

	It("never exceeds MaxExperts even when Available is larger", func() {
		in := base
		in.Category = classify.CategorySafetyCritical
		in.MaxExperts = 2
		Expect(selector.Select(in)).To(Equal([]string{"A", "B"}))
	})

	It("never exceeds the Available set", func() {
		in := base
		in.Available = []string{"A"}
		in.Category = classify.CategorySafetyCritical
		Expect(selector.Select(in)).To(Equal([]string{"A"}))
	})
})
