package scanner_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/scanner"
	"pullwatch.app/pullwatch/internal/store"
)

type mockRecordStore struct {
	scanStaleFn func(ctx context.Context, entityType model.EntityType, action string, cutoff int64) ([]model.Record, error)
}

func (m *mockRecordStore) Get(ctx context.Context, id string) (*model.Record, error) {
	return nil, store.ErrNotFound
}

func (m *mockRecordStore) Put(ctx context.Context, record *model.Record) error {
	return nil
}

func (m *mockRecordStore) ScanStale(ctx context.Context, entityType model.EntityType, action string, cutoff int64) ([]model.Record, error) {
	if m.scanStaleFn != nil {
		return m.scanStaleFn(ctx, entityType, action, cutoff)
	}
	return nil, nil
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

func issueRecord(n int) model.Record {
	return model.Record{
		ID:         fmt.Sprintf("issue_%d", n),
		EntityType: model.EntityTypeIssue,
		Action:     "opened",
		Title:      fmt.Sprintf("Issue %d", n),
		URL:        fmt.Sprintf("https://github.com/acme/widgets/issues/%d", n),
	}
}

var _ = Describe("Scanner", func() {
	var (
		records  *mockRecordStore
		notifier *mockNotifier
		s        *scanner.Scanner
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		records = &mockRecordStore{}
		notifier = &mockNotifier{}
		s = scanner.New(records, notifier, time.Minute, 10*time.Minute)
	})

	It("queries open issues at the threshold cutoff", func() {
		now := time.Unix(1000, 0)
		records.scanStaleFn = func(_ context.Context, entityType model.EntityType, action string, cutoff int64) ([]model.Record, error) {
			Expect(entityType).To(Equal(model.EntityTypeIssue))
			Expect(action).To(Equal("opened"))
			Expect(cutoff).To(Equal(int64(400)))
			return nil, nil
		}

		count, err := s.Scan(ctx, now, 600*time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})

	It("sends no alert when nothing is stale", func() {
		count, err := s.Scan(ctx, time.Now(), 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
		Expect(notifier.messages).To(BeEmpty())
	})

	It("alerts with the full count but lists at most three issues", func() {
		records.scanStaleFn = func(_ context.Context, _ model.EntityType, _ string, _ int64) ([]model.Record, error) {
			return []model.Record{
				issueRecord(1), issueRecord(2), issueRecord(3), issueRecord(4), issueRecord(5),
			}, nil
		}

		count, err := s.Scan(ctx, time.Now(), 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(5))

		Expect(notifier.messages).To(HaveLen(1))
		Expect(notifier.messages[0]).To(Equal(
			"⚠️ 5 old issues found! Check them here:\n" +
				"- Issue 1: https://github.com/acme/widgets/issues/1\n" +
				"- Issue 2: https://github.com/acme/widgets/issues/2\n" +
				"- Issue 3: https://github.com/acme/widgets/issues/3\n"))
	})

	It("lists every issue when three or fewer are stale", func() {
		records.scanStaleFn = func(_ context.Context, _ model.EntityType, _ string, _ int64) ([]model.Record, error) {
			return []model.Record{issueRecord(7)}, nil
		}

		count, err := s.Scan(ctx, time.Now(), 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
		Expect(notifier.messages[0]).To(HavePrefix("⚠️ 1 old issues found!"))
		Expect(notifier.messages[0]).To(ContainSubstring("- Issue 7: "))
	})

	It("returns the scan error when the store read fails", func() {
		records.scanStaleFn = func(_ context.Context, _ model.EntityType, _ string, _ int64) ([]model.Record, error) {
			return nil, fmt.Errorf("connection refused")
		}

		_, err := s.Scan(ctx, time.Now(), 10*time.Minute)
		Expect(err).To(MatchError(ContainSubstring("connection refused")))
		Expect(notifier.messages).To(BeEmpty())
	})

	It("does not fail the scan when the alert cannot be sent", func() {
		records.scanStaleFn = func(_ context.Context, _ model.EntityType, _ string, _ int64) ([]model.Record, error) {
			return []model.Record{issueRecord(1)}, nil
		}
		notifier.sendFn = func(_ context.Context, _ string) error {
			return fmt.Errorf("gateway down")
		}

		count, err := s.Scan(ctx, time.Now(), 10*time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})
})
