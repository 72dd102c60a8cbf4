package classify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/pkg/classify"
)

var _ = Describe("Dictionary", func() {
	var dict *classify.Dictionary

	BeforeEach(func() {
		var err error
		dict, err = classify.LoadDictionary()
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads every seeded issue code", func() {
		for _, code := range []string{
			"ASBP-DOOR-SCRATCH", "ASBP-GRILL-GAP", "ASBP-BUMPER-CRACK",
			"ASBP-PAINT-DEFECT", "ASBP-ENGINE-NOISE", "ASBP-BRAKE-FADE",
		} {
			_, ok := dict.Lookup(code)
			Expect(ok).To(BeTrue(), "expected issue %s to be loaded", code)
		}
	})

	It("matches a report by keyword, best match first", func() {
		matches := dict.MatchKeywords("The brake pedal feels spongy, there's brake fade under repeated braking")
		Expect(matches).NotTo(BeEmpty())
		Expect(matches[0].Code).To(Equal("ASBP-BRAKE-FADE"))
	})

	It("returns no matches for unrelated text", func() {
		matches := dict.MatchKeywords("the cafeteria menu changed today")
		Expect(matches).To(BeEmpty())
	})
})

var _ = Describe("Evaluate", func() {
	It("classifies a reading within the normal range", func() {
		status, ok := classify.Evaluate(classify.EquipmentPress, "PRESSURE", 85)
		Expect(ok).To(BeTrue())
		Expect(status).To(Equal(classify.StatusNormal))
	})

	It("classifies a reading above the critical max", func() {
		status, ok := classify.Evaluate(classify.EquipmentPress, "PRESSURE", 130)
		Expect(ok).To(BeTrue())
		Expect(status).To(Equal(classify.StatusCritical))
	})

	It("classifies a reading outside normal but below critical as a warning", func() {
		status, ok := classify.Evaluate(classify.EquipmentPress, "PRESSURE", 100)
		Expect(ok).To(BeTrue())
		Expect(status).To(Equal(classify.StatusWarning))
	})

	It("returns ok=false for an unknown equipment/metric pair", func() {
		_, ok := classify.Evaluate(classify.EquipmentPress, "UNKNOWN_METRIC", 1)
		Expect(ok).To(BeFalse())
	})
})
