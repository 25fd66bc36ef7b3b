package worker

import (
	"context"

	"pullwatch.app/pullwatch/internal/feed"
	"pullwatch.app/pullwatch/internal/model"
)

// Consumer abstracts the change feed for testability.
type Consumer interface {
	Read(ctx context.Context) ([]feed.Message, error)
	Ack(ctx context.Context, msg feed.Message) error
	SendDLQ(ctx context.Context, msg feed.Message, errMsg string) error
}

// DiffFetcher retrieves the unified diff that feeds review generation.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, diffURL string) (string, error)
}

// CommentPublisher posts review text back onto the pull request.
type CommentPublisher interface {
	PostComment(ctx context.Context, repo string, number int64, text string) error
}

// ChangeProcessor abstracts per-event workflow processing for testability.
type ChangeProcessor interface {
	ProcessEvent(ctx context.Context, event model.ChangeEvent) (EventStatus, error)
	HandleBatch(ctx context.Context, events []model.ChangeEvent) Outcome
}
