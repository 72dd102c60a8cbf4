package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"lineadvisor.app/advisor/internal/httpapi"
	"lineadvisor.app/advisor/pkg/classify"
	"lineadvisor.app/advisor/pkg/expert"
	"lineadvisor.app/advisor/pkg/metrics"
	"lineadvisor.app/advisor/pkg/moderator"
	"lineadvisor.app/advisor/pkg/session"
	"lineadvisor.app/advisor/pkg/workflow"
)

type fakeAdapter struct {
	name string
	resp *expert.Response
}

func (a *fakeAdapter) Name() string { return a.name }
func (a *fakeAdapter) Ask(ctx context.Context, systemPrompt, userPrompt string) (*expert.Response, error) {
	return a.resp, nil
}

var _ = Describe("Handler.Chat", func() {
	var (
		router *gin.Engine
		store  session.Store
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)

		dict, err := classify.LoadDictionary()
		Expect(err).NotTo(HaveOccurred())

		registry := expert.NewRegistryFromAdapters(map[string]expert.Adapter{
			"A": &fakeAdapter{name: "A", resp: &expert.Response{ExpertName: "A", Content: "replace the worn seal", Confidence: 0.8}},
		})
		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   registry,
			Moderator:  moderator.New(nil, 0.3), // no client configured: degrades to fallback
			MaxExperts: 1,
		}

		store = session.NewMemStore(10)
		m := metrics.New()
		handler := &httpapi.Handler{Engine: engine, Store: store, Metrics: m}
		router = httpapi.NewRouter(handler, func(c *gin.Context) { c.Status(200) })
	})

	It("creates a new session and returns a recommendation", func() {
		body, _ := json.Marshal(httpapi.ChatRequest{Message: "door got scratched during assembly"})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(200))
		var resp httpapi.ChatResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.SessionID).To(HavePrefix("sess_"))
		Expect(resp.ConversationCount).To(Equal(1))
		Expect(resp.Diagnosis).NotTo(BeEmpty())
		Expect(resp.ResponseType).To(Equal(httpapi.ResponseFirstQuestion))
		Expect(resp.ParticipatingExperts).To(ContainElement("A"))
		Expect(resp.ProcessingTimeSeconds).To(BeNumerically(">=", 0))
	})

	It("reuses an existing session and increments its conversation count", func() {
		sess, err := store.Create("line-42", "")
		Expect(err).NotTo(HaveOccurred())

		body, _ := json.Marshal(httpapi.ChatRequest{SessionID: sess.ID, Message: "engine makes an abnormal noise"})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(200))
		var resp httpapi.ChatResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.SessionID).To(Equal(sess.ID))
		Expect(resp.ConversationCount).To(Equal(1))
		Expect(resp.ResponseType).To(Equal(httpapi.ResponseFirstQuestion))
	})

	It("rejects a request with no message", func() {
		body, _ := json.Marshal(httpapi.ChatRequest{})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(400))
	})
})

var _ = Describe("Handler.Health", func() {
	It("reports a snapshot", func() {
		gin.SetMode(gin.TestMode)
		dict, err := classify.LoadDictionary()
		Expect(err).NotTo(HaveOccurred())

		engine := &workflow.Engine{
			Classifier: classify.NewClassifier(dict, nil),
			Registry:   expert.NewRegistryFromAdapters(nil),
			Moderator:  moderator.New(nil, 0.3),
			MaxExperts: 1,
		}
		m := metrics.New()
		m.SetActiveSessions(3)
		handler := &httpapi.Handler{Engine: engine, Store: session.NewMemStore(10), Metrics: m}
		router := httpapi.NewRouter(handler, func(c *gin.Context) { c.Status(200) })

		req := httptest.NewRequest("GET", "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(200))
		var resp httpapi.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.ActiveSessions).To(Equal(3))
	})
})
