package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pullwatch.app/pullwatch/internal/notify"
)

var _ = Describe("SMSNotifier", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("posts the recipient and message to the gateway", func() {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		notifier := notify.NewSMSNotifier(server.URL, "+15551234567")
		Expect(notifier.Send(ctx, "hello")).To(Succeed())

		Expect(gotBody).To(HaveKeyWithValue("to", "+15551234567"))
		Expect(gotBody).To(HaveKeyWithValue("message", "hello"))
	})

	It("fails on a non-2xx gateway response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		notifier := notify.NewSMSNotifier(server.URL, "+15551234567")
		err := notifier.Send(ctx, "hello")
		Expect(err).To(MatchError(ContainSubstring("status 502")))
	})
})
