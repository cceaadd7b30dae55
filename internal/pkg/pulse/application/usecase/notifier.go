package usecase

import "context"

// RealtimeNotifier publishes domain events to the realtime fan-out hub.
// Publishing is best-effort: callers log failures and let the request succeed.
type RealtimeNotifier interface {
	Publish(ctx context.Context, topic string, payload map[string]any, private bool) error
}

// PublicPulseTopic is the fixed public channel for artifact lifecycle events.
// ModerationTopic carries private escalation events for moderator tooling.
const (
	PublicPulseTopic = "local-pulse"
	ModerationTopic  = "moderation"
)

// Event type tags carried in every published payload.
const (
	EventArtifactCreated = "artifact_created"
	EventArtifactFlagged = "artifact_flagged"
	EventArtifactRemoved = "artifact_removed"
)
