package expert

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("classify", func() {
	It("returns nil for a nil error", func() {
		Expect(classify(context.Background(), nil)).To(BeNil())
	})

	It("classifies context deadline exceeded as a retryable TIMEOUT", func() {
		e := classify(context.Background(), context.DeadlineExceeded)
		Expect(e.Kind).To(Equal(KindTimeout))
		Expect(e.Retryable).To(BeTrue())
	})

	It("classifies context cancellation as a non-retryable TRANSPORT_ERROR", func() {
		e := classify(context.Background(), context.Canceled)
		Expect(e.Kind).To(Equal(KindTransportError))
		Expect(e.Retryable).To(BeFalse())
	})

	It("classifies a 401 message as a non-retryable AUTH_ERROR", func() {
		e := classify(context.Background(), errors.New("401 unauthorized: invalid api key"))
		Expect(e.Kind).To(Equal(KindAuthError))
		Expect(e.Retryable).To(BeFalse())
	})

	It("classifies a 400 message as a non-retryable BAD_REQUEST", func() {
		e := classify(context.Background(), errors.New("400 bad request: invalid parameter"))
		Expect(e.Kind).To(Equal(KindBadRequest))
		Expect(e.Retryable).To(BeFalse())
	})

	It("classifies an unrecognized error as a retryable TRANSPORT_ERROR", func() {
		e := classify(context.Background(), errors.New("connection reset by peer"))
		Expect(e.Kind).To(Equal(KindTransportError))
		Expect(e.Retryable).To(BeTrue())
	})
})
