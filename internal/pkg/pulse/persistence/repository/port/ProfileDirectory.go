package repository

import (
	"context"

	pulse "go-pulse/internal/pkg/pulse/domain"
)

// ProfileDirectory is the read-only projection of the profile collaborator.
// This subsystem never mutates profiles; it only reads what matching needs.
type ProfileDirectory interface {
	// GetProfile loads one user's matching projection.
	// Returns pulse.ErrProfileIncomplete when no profile row exists.
	GetProfile(ctx context.Context, userID string) (*pulse.CandidateProfile, error)

	// ListNearby returns candidate profiles whose location falls inside the
	// box, excluding the given user id. limit bounds the scan; exact-distance
	// and preference filtering happen in the matcher.
	ListNearby(ctx context.Context, box pulse.BoundingBox, excludeUserID string, limit int) ([]pulse.CandidateProfile, error)
}
