package repository

import "context"

// VisibilityProvider exposes the shadow-throttle collaborator as a read-only
// multiplier in (0, 1]. 1.0 means unthrottled. This core never mutates
// throttle state; it only decorates feed items for ranking/display.
type VisibilityProvider interface {
	VisibilityMultiplier(ctx context.Context, userID string) (float64, error)
}
