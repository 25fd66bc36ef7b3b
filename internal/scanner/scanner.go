package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pullwatch.app/pullwatch/common/logger"
	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/notify"
	"pullwatch.app/pullwatch/internal/store"
)

// At most this many issues are listed in a single alert; the header
// still carries the full count.
const maxSampledIssues = 3

// Scanner periodically sweeps the record store for issues that have
// stayed open past the staleness threshold and raises an alert.
type Scanner struct {
	records   store.RecordStore
	notifier  notify.Notifier
	interval  time.Duration
	threshold time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(records store.RecordStore, notifier notify.Notifier, interval, threshold time.Duration) *Scanner {
	return &Scanner{
		records:   records,
		notifier:  notifier,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (s *Scanner) Run(ctx context.Context) error {
	defer close(s.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "pullwatch.scanner",
	})

	slog.InfoContext(ctx, "scanner started",
		"interval", s.interval,
		"threshold", s.threshold)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			slog.InfoContext(ctx, "scanner stopping")
			return nil
		case <-ticker.C:
			if _, err := s.Scan(ctx, time.Now(), s.threshold); err != nil {
				slog.ErrorContext(ctx, "scan failed", "error", err)
			}
		}
	}
}

func (s *Scanner) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// Scan finds issues still open at or past the threshold as of now and
// sends a single alert when any exist. It returns the number of stale
// issues found.
func (s *Scanner) Scan(ctx context.Context, now time.Time, threshold time.Duration) (int, error) {
	cutoff := now.Add(-threshold).Unix()

	stale, err := s.records.ScanStale(ctx, model.EntityTypeIssue, model.ActionOpened, cutoff)
	if err != nil {
		return 0, fmt.Errorf("scanning stale issues: %w", err)
	}

	if len(stale) == 0 {
		slog.InfoContext(ctx, "no stale issues found")
		return 0, nil
	}

	slog.InfoContext(ctx, "stale issues found", "count", len(stale))

	if err := s.notifier.Send(ctx, buildAlert(stale)); err != nil {
		// The next sweep will re-alert; do not fail the scan.
		slog.ErrorContext(ctx, "failed to send stale issue alert", "error", err)
	}

	return len(stale), nil
}

func buildAlert(stale []model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ %d old issues found! Check them here:\n", len(stale))

	sampled := stale
	if len(sampled) > maxSampledIssues {
		sampled = sampled[:maxSampledIssues]
	}
	for _, rec := range sampled {
		fmt.Fprintf(&b, "- %s: %s\n", rec.Title, rec.URL)
	}
	return b.String()
}
