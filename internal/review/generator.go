package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pullwatch.app/pullwatch/common/llm"
)

// FallbackText is posted when review generation fails. The workflow
// still notifies that a PR was opened even without a real review.
const FallbackText = "Code review generation failed."

// Diffs beyond this size blow the prompt budget; truncate rather than
// fail the whole review.
const maxDiffBytes = 120_000

const systemPrompt = `You are a senior software engineer performing a code review. Analyze the code changes you are given and provide a detailed review.
Focus on the following aspects:
- Code readability (naming, structure, comments)
- Performance (time and space complexity)
- Security considerations
- Language and platform best practices
- Improvement suggestions with example code if applicable.`

// Generator produces review text for a unified diff.
type Generator interface {
	Generate(ctx context.Context, diff string) (string, error)
}

type reviewResponse struct {
	Review string `json:"review" jsonschema_description:"The full code review in markdown"`
}

type generator struct {
	client    llm.Client
	maxTokens int
}

func NewGenerator(client llm.Client, maxTokens int) Generator {
	if maxTokens <= 0 {
		maxTokens = 4000
	}
	return &generator{
		client:    client,
		maxTokens: maxTokens,
	}
}

func (g *generator) Generate(ctx context.Context, diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", fmt.Errorf("empty diff")
	}
	if len(diff) > maxDiffBytes {
		slog.WarnContext(ctx, "diff truncated for review",
			"diff_bytes", len(diff),
			"max_bytes", maxDiffBytes)
		diff = diff[:maxDiffBytes]
	}

	var result reviewResponse
	resp, err := g.client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(diff),
		SchemaName:   "code_review",
		Schema:       llm.GenerateSchema[reviewResponse](),
		MaxTokens:    g.maxTokens,
		Temperature:  llm.Temp(0.3),
	}, &result)
	if err != nil {
		return "", fmt.Errorf("generating review: %w", err)
	}
	if result.Review == "" {
		return "", fmt.Errorf("model returned empty review")
	}

	slog.DebugContext(ctx, "review generated",
		"model", g.client.Model(),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	return result.Review, nil
}

func buildUserPrompt(diff string) string {
	var b strings.Builder
	b.WriteString("Code changes:\n\n")
	b.WriteString("--- BEGIN DIFF ---\n")
	b.WriteString(diff)
	b.WriteString("\n--- END DIFF ---\n")
	return b.String()
}
