package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	It("computes a rolling per-expert success rate", func() {
		m := metrics.New()
		m.RecordExpertOutcome("A", true)
		m.RecordExpertOutcome("A", true)
		m.RecordExpertOutcome("A", false)
		m.RecordExpertOutcome("A", true)

		snap := m.Snapshot()
		Expect(snap.ExpertSuccessRates["A"]).To(BeNumerically("~", 0.75, 0.001))
	})

	It("reports active sessions and alerts as set", func() {
		m := metrics.New()
		m.SetActiveSessions(7)
		m.SetActiveAlerts(2)

		snap := m.Snapshot()
		Expect(snap.ActiveSessions).To(Equal(7))
		Expect(snap.ActiveAlerts).To(Equal(2))
	})

	It("reports a non-negative uptime on a fresh instance", func() {
		m := metrics.New()
		snap := m.Snapshot()
		Expect(snap.Uptime).To(BeNumerically(">=", 0))
	})

	It("registers every collector without a duplicate-registration panic", func() {
		Expect(func() { metrics.New() }).NotTo(Panic())
	})
})
