package worker_test

import (
	"context"
	"sync"
	"time"

	"pullwatch.app/pullwatch/internal/feed"
	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/worker"
)

type mockGenerator struct {
	generateFn func(ctx context.Context, diff string) (string, error)
	calls      int
}

func (m *mockGenerator) Generate(ctx context.Context, diff string) (string, error) {
	m.calls++
	if m.generateFn != nil {
		return m.generateFn(ctx, diff)
	}
	return "looks good", nil
}

type mockDiffFetcher struct {
	fetchFn func(ctx context.Context, diffURL string) (string, error)
	calls   int
}

func (m *mockDiffFetcher) FetchDiff(ctx context.Context, diffURL string) (string, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, diffURL)
	}
	return "diff --git a/main.go b/main.go", nil
}

type mockCommentPublisher struct {
	postFn   func(ctx context.Context, repo string, number int64, text string) error
	posted   []string
	lastRepo string
	lastNum  int64
}

func (m *mockCommentPublisher) PostComment(ctx context.Context, repo string, number int64, text string) error {
	m.posted = append(m.posted, text)
	m.lastRepo = repo
	m.lastNum = number
	if m.postFn != nil {
		return m.postFn(ctx, repo, number, text)
	}
	return nil
}

type mockNotifier struct {
	sendFn   func(ctx context.Context, message string) error
	messages []string
}

func (m *mockNotifier) Send(ctx context.Context, message string) error {
	m.messages = append(m.messages, message)
	if m.sendFn != nil {
		return m.sendFn(ctx, message)
	}
	return nil
}

type mockConsumer struct {
	mu      sync.Mutex
	batches [][]feed.Message
	acked   []string
	dlq     []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]feed.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.batches) == 0 {
		// Simulate a blocking read with nothing to deliver
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg feed.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg feed.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

func (m *mockConsumer) dlqIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dlq...)
}

type mockProcessor struct {
	processFn func(ctx context.Context, event model.ChangeEvent) (worker.EventStatus, error)
}

func (m *mockProcessor) ProcessEvent(ctx context.Context, event model.ChangeEvent) (worker.EventStatus, error) {
	if m.processFn != nil {
		return m.processFn(ctx, event)
	}
	return worker.StatusProcessed, nil
}

func (m *mockProcessor) HandleBatch(ctx context.Context, events []model.ChangeEvent) worker.Outcome {
	var outcome worker.Outcome
	for _, event := range events {
		status, _ := m.ProcessEvent(ctx, event)
		switch status {
		case worker.StatusProcessed:
			outcome.Processed++
		case worker.StatusSkipped:
			outcome.Skipped++
		case worker.StatusFailed:
			outcome.Failed++
		}
	}
	return outcome
}
