package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pullwatch.app/pullwatch/common/logger"
)

// Worker drains the change feed and hands events to the processor.
// Every message is acked exactly once: successfully handled and skipped
// events directly, failed events via the DLQ.
type Worker struct {
	consumer  Consumer
	processor ChangeProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor ChangeProcessor) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on read errors
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	if len(messages) == 0 {
		return nil
	}

	var outcome Outcome
	for _, msg := range messages {
		msgCtx := logger.WithLogFields(ctx, logger.LogFields{
			MessageID: logger.Ptr(msg.ID),
		})

		status, procErr := w.processor.ProcessEvent(msgCtx, msg.Event)
		switch status {
		case StatusProcessed:
			outcome.Processed++
		case StatusSkipped:
			outcome.Skipped++
		case StatusFailed:
			outcome.Failed++
			slog.ErrorContext(msgCtx, "event processing failed, sending to DLQ",
				"error", procErr,
				"record_id", msg.Event.Record.ID)
			if dlqErr := w.consumer.SendDLQ(msgCtx, msg, procErr.Error()); dlqErr != nil {
				slog.ErrorContext(msgCtx, "failed to send to DLQ", "error", dlqErr)
			}
			// SendDLQ acks the original message.
			continue
		}

		if ackErr := w.consumer.Ack(msgCtx, msg); ackErr != nil {
			// The message will be redelivered; processing is tolerant
			// of duplicates, so log and move on.
			slog.WarnContext(msgCtx, "failed to ack message", "error", ackErr)
		}
	}

	slog.InfoContext(ctx, "batch completed",
		"processed", outcome.Processed,
		"skipped", outcome.Skipped,
		"failed", outcome.Failed)

	return nil
}
