package review_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pullwatch.app/pullwatch/common/llm"
	"pullwatch.app/pullwatch/internal/review"
)

type mockLLM struct {
	chatFn func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
	calls  int
}

func (m *mockLLM) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.calls++
	if m.chatFn != nil {
		return m.chatFn(ctx, req, result)
	}
	return &llm.Response{}, nil
}

func (m *mockLLM) Model() string {
	return "test-model"
}

func setReview(result any, text string) {
	payload, err := json.Marshal(map[string]string{"review": text})
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(payload, result)).To(Succeed())
}

var _ = Describe("Generator", func() {
	var (
		client *mockLLM
		gen    review.Generator
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &mockLLM{}
		gen = review.NewGenerator(client, 4000)
	})

	It("generates a review from the diff", func() {
		client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
			Expect(req.SchemaName).To(Equal("code_review"))
			Expect(req.UserPrompt).To(ContainSubstring("diff --git a/main.go"))
			Expect(req.MaxTokens).To(Equal(4000))
			setReview(result, "Solid change overall.")
			return &llm.Response{PromptTokens: 100, CompletionTokens: 50}, nil
		}

		text, err := gen.Generate(ctx, "diff --git a/main.go b/main.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Solid change overall."))
	})

	It("rejects an empty diff without calling the model", func() {
		_, err := gen.Generate(ctx, "   \n")
		Expect(err).To(MatchError(ContainSubstring("empty diff")))
		Expect(client.calls).To(BeZero())
	})

	It("propagates model failures", func() {
		client.chatFn = func(_ context.Context, _ llm.Request, _ any) (*llm.Response, error) {
			return nil, fmt.Errorf("rate limited")
		}

		_, err := gen.Generate(ctx, "diff")
		Expect(err).To(MatchError(ContainSubstring("rate limited")))
	})

	It("rejects an empty review from the model", func() {
		client.chatFn = func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
			setReview(result, "")
			return &llm.Response{}, nil
		}

		_, err := gen.Generate(ctx, "diff")
		Expect(err).To(MatchError(ContainSubstring("empty review")))
	})

	It("truncates oversized diffs before prompting", func() {
		huge := strings.Repeat("x", 200_000)
		client.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
			Expect(len(req.UserPrompt)).To(BeNumerically("<", 130_000))
			setReview(result, "ok")
			return &llm.Response{}, nil
		}

		_, err := gen.Generate(ctx, huge)
		Expect(err).NotTo(HaveOccurred())
	})
})
