// Package notify delivers brokerage emails through an external mail
// relay. Delivery is always best-effort: a failed notification is
// logged by the caller and never rolls back a state transition.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Message is one outbound email handed to the relay.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier sends email notifications.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// RelayNotifier posts messages as JSON to an HTTP mail relay.
type RelayNotifier struct {
	client   *http.Client
	relayURL string
}

// NewRelayNotifier creates a notifier for the given relay URL. An empty
// URL yields a disabled notifier whose Send is a no-op.
func NewRelayNotifier(relayURL string) *RelayNotifier {
	return &RelayNotifier{
		relayURL: relayURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to the relay. Non-2xx responses are errors.
func (n *RelayNotifier) Send(ctx context.Context, msg Message) error {
	if n.relayURL == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.relayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification to relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail relay returned status %d", resp.StatusCode)
	}

	return nil
}
