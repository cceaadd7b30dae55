package repository

import (
	"context"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
)

// ArtifactQuery carries the geo filter for a feed read. The bounding box is
// the cheap pre-filter; adapters must still exclude removed and expired rows.
// Exact-distance post-filtering happens in the use case.
type ArtifactQuery struct {
	Box   pulse.BoundingBox
	Type  *pulse.ArtifactType // optional type filter
	Now   time.Time
	Limit int
}

// FlagOutcome describes the row state after a flag submission.
// Counted is false when the reporter had already flagged this artifact.
// Escalated is true only on the transition that crossed the threshold.
type FlagOutcome struct {
	FlagCount int
	Status    pulse.ModerationStatus
	Counted   bool
	Escalated bool
}

// ArtifactRepository defines persistence operations for proximity artifacts.
//
// Mutation contract: CreateArtifact, RecordFlag and MarkRemoved must be
// atomic single-statement operations at the row level. Concurrent reporters
// flagging the same artifact, or one user posting from several devices near
// the cap boundary, are realistic races; no application-level
// read-modify-write is allowed for the counters.
type ArtifactRepository interface {
	// CreateArtifact persists the artifact and returns the generated id.
	// The insert is conditional on the owner's rolling 24h per-type cap;
	// when the cap is hit it returns pulse.ErrDailyCapExceeded.
	CreateArtifact(ctx context.Context, a pulse.Artifact) (string, error)

	// GetArtifact loads one artifact regardless of status or expiry.
	// Returns pulse.ErrArtifactNotFound for unknown ids.
	GetArtifact(ctx context.Context, id string) (*pulse.Artifact, error)

	// QueryActive returns visible artifacts inside the box, newest first,
	// excluding removed and expired rows.
	QueryActive(ctx context.Context, q ArtifactQuery) ([]pulse.Artifact, error)

	// RecordFlag registers a flag by reporter, atomically incrementing the
	// counter at most once per (artifact, reporter) pair and escalating
	// clean -> flagged when the post-increment count reaches threshold.
	RecordFlag(ctx context.Context, artifactID, reporterID string, threshold int) (FlagOutcome, error)

	// MarkRemoved sets the terminal removed status unconditionally.
	MarkRemoved(ctx context.Context, artifactID string) error

	// CountRecentByOwner counts artifacts posted by owner since the given
	// instant. Feeds both the daily-cap check and the active_locally
	// compatibility indicator.
	CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error)
}
