package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// HubNotifier publishes domain events to the in-process websocket hub.
// Public events fan out to every topic subscriber; private events are
// delivered only to the event's addressed user when one is named in the
// payload under "user_id".
type HubNotifier struct {
	router *Router
}

func NewHubNotifier(router *Router) *HubNotifier {
	return &HubNotifier{router: router}
}

// Publish serializes the payload with an envelope and fans it out.
// Delivery is best-effort; a hub with no subscribers is not an error.
func (n *HubNotifier) Publish(ctx context.Context, topic string, payload map[string]any, private bool) error {
	if n == nil || n.router == nil {
		return fmt.Errorf("realtime: notifier not initialized")
	}

	envelope := map[string]any{
		"topic":     topic,
		"data":      payload,
		"private":   private,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("realtime: encode event: %w", err)
	}

	if private {
		if uid, ok := payload["user_id"].(string); ok && uid != "" {
			n.router.NotifyUser(uid, raw)
			return nil
		}
	}
	n.router.Broadcast(topic, raw, "")
	return nil
}
