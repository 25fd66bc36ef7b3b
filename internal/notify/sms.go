package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notifier delivers a message out-of-band.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// smsNotifier posts messages to an SMS gateway endpoint. The gateway
// contract is a single JSON POST: {"to": "<E.164 number>", "message": "..."}.
type smsNotifier struct {
	httpClient *http.Client
	gatewayURL string
	to         string
}

func NewSMSNotifier(gatewayURL, to string) Notifier {
	return &smsNotifier{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		gatewayURL: gatewayURL,
		to:         to,
	}
}

func (n *smsNotifier) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      n.to,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sending notification: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
