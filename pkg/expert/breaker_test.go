package expert

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingAdapter struct {
	name  string
	calls int32
	fn    func(n int32) (*Response, error)
}

func (a *countingAdapter) Name() string { return a.name }

func (a *countingAdapter) Ask(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	n := atomic.AddInt32(&a.calls, 1)
	return a.fn(n)
}

var _ = Describe("resilientAdapter", func() {
	It("retries a transient error and succeeds once the underlying adapter recovers", func() {
		inner := &countingAdapter{name: "A", fn: func(n int32) (*Response, error) {
			if n < 3 {
				return nil, &Error{Kind: KindTransportError, Err: errors.New("boom"), Retryable: true}
			}
			return &Response{ExpertName: "A", Content: "ok"}, nil
		}}
		a := newResilientAdapter(inner, 5)

		resp, err := a.Ask(context.Background(), "sys", "user")

		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("ok"))
		Expect(inner.calls).To(BeNumerically("==", 3))
	})

	It("does not retry a permanent BAD_REQUEST error", func() {
		inner := &countingAdapter{name: "A", fn: func(n int32) (*Response, error) {
			return nil, &Error{Kind: KindBadRequest, Err: errors.New("bad"), Retryable: false}
		}}
		a := newResilientAdapter(inner, 5)

		_, err := a.Ask(context.Background(), "sys", "user")

		Expect(err).To(HaveOccurred())
		Expect(inner.calls).To(BeNumerically("==", 1))
	})

	It("gives up after exhausting the retry budget on a persistently transient error", func() {
		inner := &countingAdapter{name: "A", fn: func(n int32) (*Response, error) {
			return nil, &Error{Kind: KindTimeout, Err: errors.New("slow"), Retryable: true}
		}}
		a := newResilientAdapter(inner, 2)

		_, err := a.Ask(context.Background(), "sys", "user")

		Expect(err).To(HaveOccurred())
		Expect(inner.calls).To(BeNumerically("==", 3)) // first attempt + 2 retries
	})
})
