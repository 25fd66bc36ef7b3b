package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"pullwatch.app/pullwatch/common/logger"
	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/notify"
	"pullwatch.app/pullwatch/internal/review"
)

type EventStatus int

const (
	StatusProcessed EventStatus = iota
	StatusSkipped
	StatusFailed
)

// Outcome aggregates per-event results for one delivered batch. A batch
// never fails as a whole; individual failures are counted here.
type Outcome struct {
	Processed int
	Skipped   int
	Failed    int
}

// Processor drives the review workflow for record change events:
// diff fetch, review generation, PR comment, SMS notification. Only
// pull requests transitioning to "opened" trigger the workflow.
type Processor struct {
	reviews  review.Generator
	diffs    DiffFetcher
	comments CommentPublisher
	notifier notify.Notifier
}

func NewProcessor(reviews review.Generator, diffs DiffFetcher, comments CommentPublisher, notifier notify.Notifier) *Processor {
	return &Processor{
		reviews:  reviews,
		diffs:    diffs,
		comments: comments,
		notifier: notifier,
	}
}

// HandleBatch processes every event independently; one event's failure
// never aborts its siblings.
func (p *Processor) HandleBatch(ctx context.Context, events []model.ChangeEvent) Outcome {
	var outcome Outcome
	for _, event := range events {
		status, err := p.ProcessEvent(ctx, event)
		switch status {
		case StatusProcessed:
			outcome.Processed++
		case StatusSkipped:
			outcome.Skipped++
		case StatusFailed:
			outcome.Failed++
			slog.ErrorContext(ctx, "change event processing failed",
				"error", err,
				"change_event_id", event.ID,
				"record_id", event.Record.ID)
		}
	}
	return outcome
}

// ProcessEvent runs the workflow for a single change event. Panics are
// contained and reported as failures.
func (p *Processor) ProcessEvent(ctx context.Context, event model.ChangeEvent) (status EventStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in event processing",
				"panic", r,
				"change_event_id", event.ID)
			status = StatusFailed
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ChangeEventID: logger.Ptr(event.ID),
		Component:     "pullwatch.worker.processor",
	})

	sc := logger.StartSpan(ctx, "processor.process_event", trace.WithSpanKind(trace.SpanKindConsumer))
	defer func() {
		sc.RecordError(err)
		sc.End()
	}()
	ctx = sc.Context()

	if event.Kind != model.ChangeKindCreated && event.Kind != model.ChangeKindModified {
		slog.InfoContext(ctx, "skipping unsupported change kind", "kind", event.Kind)
		return StatusSkipped, nil
	}

	record := event.Record
	if record.ID == "" {
		slog.InfoContext(ctx, "record id missing, skipping event")
		return StatusSkipped, nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RecordID:  logger.Ptr(record.ID),
		EventType: logger.Ptr(string(record.EntityType)),
	})

	if record.EntityType != model.EntityTypePullRequest {
		slog.InfoContext(ctx, "entity type not handled by review workflow, skipping")
		return StatusSkipped, nil
	}

	// Only the open transition triggers a review. The feed redelivers
	// record refreshes whose action is still "opened"; those retrigger
	// too, the action filter alone cannot tell them apart.
	if record.Action != model.ActionOpened {
		slog.InfoContext(ctx, "skipping pull request action", "action", record.Action)
		return StatusSkipped, nil
	}

	if record.DiffURL == nil || *record.DiffURL == "" {
		return StatusFailed, fmt.Errorf("record %s has no diff_url", record.ID)
	}

	diff, err := p.diffs.FetchDiff(ctx, *record.DiffURL)
	if err != nil {
		return StatusFailed, fmt.Errorf("fetching diff: %w", err)
	}

	reviewText, err := p.reviews.Generate(ctx, diff)
	if err != nil {
		// The workflow must still announce the PR even without a
		// review; substitute the fixed fallback and keep going.
		slog.ErrorContext(ctx, "review generation failed, using fallback", "error", err)
		reviewText = review.FallbackText
	}

	if err := p.comments.PostComment(ctx, record.Repository, record.Number, reviewText); err != nil {
		slog.ErrorContext(ctx, "failed to post review comment", "error", err)
	} else {
		slog.InfoContext(ctx, "review comment posted",
			"repository", record.Repository,
			"pr_number", record.Number)
	}

	message := fmt.Sprintf(
		"A new Pull Request has been opened by %s in %s.\nTitle: %s\nURL: %s\nAn automated code review has been completed.",
		record.Sender, record.Repository, record.Title, record.URL,
	)
	if err := p.notifier.Send(ctx, message); err != nil {
		slog.ErrorContext(ctx, "failed to send notification", "error", err)
	}

	return StatusProcessed, nil
}
