package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pullwatch.app/pullwatch/internal/http/handler/webhook"
	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/service"
)

type fakeIngestService struct {
	ingestFn func(ctx context.Context, eventType string, body []byte) (*model.Record, error)
}

func (f *fakeIngestService) Ingest(ctx context.Context, eventType string, body []byte) (*model.Record, error) {
	if f.ingestFn != nil {
		return f.ingestFn(ctx, eventType, body)
	}
	return &model.Record{ID: "pr_1", Action: "opened", Repository: "acme/widgets"}, nil
}

var _ = Describe("GitHubWebhookHandler", func() {
	var (
		router *gin.Engine
		ingest *fakeIngestService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		ingest = &fakeIngestService{}
		h := webhook.NewGitHubWebhookHandler(ingest)
		router.POST("/webhooks/github", h.HandleEvent)
	})

	post := func(eventType string, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if eventType != "" {
			req.Header.Set("X-GitHub-Event", eventType)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("processes a delivery and echoes the record id", func() {
		ingest.ingestFn = func(_ context.Context, eventType string, body []byte) (*model.Record, error) {
			Expect(eventType).To(Equal("pull_request"))
			Expect(string(body)).To(Equal(`{"action":"opened"}`))
			return &model.Record{ID: "pr_4242"}, nil
		}

		w := post("pull_request", `{"action":"opened"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["message"]).To(Equal("Successfully processed GitHub webhook"))
		Expect(resp["event_type"]).To(Equal("pull_request"))
		Expect(resp["id"]).To(Equal("pr_4242"))
	})

	It("rejects deliveries without the event type header", func() {
		w := post("", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps client errors to 400", func() {
		ingest.ingestFn = func(_ context.Context, _ string, _ []byte) (*model.Record, error) {
			return nil, &service.MalformedPayloadError{Reason: "missing action"}
		}

		w := post("pull_request", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["message"]).To(Equal("Error processing webhook"))
		Expect(resp["error"]).To(ContainSubstring("missing action"))
	})

	It("maps unsupported event types to 400", func() {
		ingest.ingestFn = func(_ context.Context, _ string, _ []byte) (*model.Record, error) {
			return nil, fmt.Errorf("%w: %q", service.ErrUnsupportedEventType, "deployment")
		}

		w := post("deployment", `{}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps store failures to 500", func() {
		ingest.ingestFn = func(_ context.Context, _ string, _ []byte) (*model.Record, error) {
			return nil, fmt.Errorf("writing record: disk full")
		}

		w := post("pull_request", `{}`)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["message"]).To(Equal("Error processing webhook"))
	})
})
