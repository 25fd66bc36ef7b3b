package feed_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"pullwatch.app/pullwatch/internal/feed"
	"pullwatch.app/pullwatch/internal/model"
)

var _ = Describe("ParseMessage", func() {
	var values map[string]any

	BeforeEach(func() {
		record := model.Record{
			ID:         "pr_4242",
			EntityType: model.EntityTypePullRequest,
			Action:     "opened",
			Repository: "acme/widgets",
		}
		image, err := json.Marshal(record)
		Expect(err).NotTo(HaveOccurred())

		values = map[string]any{
			"change_event_id": "123456789",
			"kind":            "created",
			"record":          string(image),
			"occurred_at":     "2026-03-01T12:00:00.000000001Z",
		}
	})

	It("round-trips a change event off the stream", func() {
		msg, err := feed.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).NotTo(HaveOccurred())

		Expect(msg.ID).To(Equal("1-0"))
		Expect(msg.Event.ID).To(Equal(int64(123456789)))
		Expect(msg.Event.Kind).To(Equal(model.ChangeKindCreated))
		Expect(msg.Event.Record.ID).To(Equal("pr_4242"))
		Expect(msg.Event.Record.EntityType).To(Equal(model.EntityTypePullRequest))
		Expect(msg.Event.OccurredAt).To(Equal(time.Date(2026, 3, 1, 12, 0, 0, 1, time.UTC)))
	})

	It("fails on a missing change_event_id", func() {
		delete(values, "change_event_id")
		_, err := feed.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).To(MatchError(ContainSubstring("change_event_id")))
	})

	It("fails on a non-numeric change_event_id", func() {
		values["change_event_id"] = "abc"
		_, err := feed.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).To(MatchError(ContainSubstring("parsing change_event_id")))
	})

	It("fails on an unparseable record image", func() {
		values["record"] = "{truncated"
		_, err := feed.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).To(MatchError(ContainSubstring("record image")))
	})

	It("tolerates a missing occurred_at", func() {
		delete(values, "occurred_at")
		msg, err := feed.ParseMessage(redis.XMessage{ID: "1-0", Values: values})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Event.OccurredAt.IsZero()).To(BeTrue())
	})
})
