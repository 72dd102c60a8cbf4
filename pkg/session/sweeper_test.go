package session_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/pkg/session"
)

var _ = Describe("Sweeper", func() {
	It("ends idle sessions on each tick until stopped", func() {
		store := session.NewMemStore(10)
		s, err := store.Create("line-42", "")
		Expect(err).NotTo(HaveOccurred())
		_, err = store.AppendTurn(s.ID, 0, session.Turn{UserMessage: "hi"})
		Expect(err).NotTo(HaveOccurred())

		sweeper := session.NewSweeper(store, 10*time.Millisecond, 0)
		ctx, cancel := context.WithCancel(context.Background())
		go sweeper.Run(ctx)

		Eventually(func() session.Status {
			updated, err := store.Get(s.ID)
			if err != nil {
				return ""
			}
			return updated.Status
		}, time.Second, 10*time.Millisecond).Should(Equal(session.StatusEnded))

		cancel()
		sweeper.Stop()
	})
})
