package pulse

import (
	"hash/fnv"
	"time"
)

// ArtifactType is the closed set of ephemeral content kinds.
type ArtifactType string

const (
	TypeChat      ArtifactType = "chat"
	TypeBoardPost ArtifactType = "board_post"
	TypeAnnounce  ArtifactType = "announce"
	TypeTokenDrop ArtifactType = "token_drop"
)

// IsValid reports whether t is a known artifact type.
func (t ArtifactType) IsValid() bool {
	switch t {
	case TypeChat, TypeBoardPost, TypeAnnounce, TypeTokenDrop:
		return true
	}
	return false
}

// TTL returns how long an artifact of this type stays discoverable.
// Chat pins are short-lived; board posts stick around.
func (t ArtifactType) TTL() time.Duration {
	switch t {
	case TypeChat:
		return 45 * time.Minute
	case TypeBoardPost:
		return 48 * time.Hour
	case TypeAnnounce:
		return 2 * time.Hour
	case TypeTokenDrop:
		return 24 * time.Hour
	}
	return 45 * time.Minute
}

// DailyCap returns how many artifacts of this type one user may post
// within a rolling 24h window.
func (t ArtifactType) DailyCap() int {
	switch t {
	case TypeChat:
		return 30
	case TypeBoardPost:
		return 10
	case TypeAnnounce:
		return 15
	case TypeTokenDrop:
		return 5
	}
	return 30
}

// ModerationStatus is the escalation state of an artifact.
// clean -> flagged -> removed; removed is terminal and also reachable
// directly via owner removal.
type ModerationStatus string

const (
	StatusClean   ModerationStatus = "clean"
	StatusFlagged ModerationStatus = "flagged"
	StatusRemoved ModerationStatus = "removed"
)

func (s ModerationStatus) IsValid() bool {
	switch s {
	case StatusClean, StatusFlagged, StatusRemoved:
		return true
	}
	return false
}

// FlagThreshold is the flag count at which a clean artifact escalates to flagged.
const FlagThreshold = 3

// Visibility radius bounds in meters for a single artifact.
const (
	MinVisibilityRadiusM = 50
	MaxVisibilityRadiusM = 5000

	DefaultVisibilityRadiusM = 1000
)

// Artifact is an ephemeral, location-pinned piece of user content.
// It is owned exclusively by its creator and is never hard-deleted;
// removal is a terminal moderation status.
type Artifact struct {
	ID                string           `db:"id"`
	OwnerID           string           `db:"owner_id"`
	Type              ArtifactType     `db:"type"`
	Content           string           `db:"content"`
	Lat               float64          `db:"location_lat"`
	Lng               float64          `db:"location_lng"`
	VisibilityRadiusM int              `db:"visibility_radius_m"`
	ModerationStatus  ModerationStatus `db:"moderation_status"`
	FlagCount         int              `db:"flag_count"`
	CreatedAt         time.Time        `db:"created_at"`
	ExpiresAt         time.Time        `db:"expires_at"`
}

// NewArtifact validates inputs and returns an artifact ready to persist.
// Content must already be sanitized (see SanitizeContent); this constructor
// enforces coordinate and radius bounds and computes the type-specific expiry.
func NewArtifact(ownerID string, t ArtifactType, content string, lat, lng float64, radiusM int, now time.Time) (*Artifact, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if !t.IsValid() {
		return nil, ErrUnknownType
	}
	if content == "" {
		return nil, ErrContentLength
	}
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}
	if radiusM == 0 {
		radiusM = DefaultVisibilityRadiusM
	}
	if radiusM < MinVisibilityRadiusM || radiusM > MaxVisibilityRadiusM {
		return nil, ErrRadiusOutOfRange
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Artifact{
		OwnerID:           ownerID,
		Type:              t,
		Content:           content,
		Lat:               lat,
		Lng:               lng,
		VisibilityRadiusM: radiusM,
		ModerationStatus:  StatusClean,
		FlagCount:         0,
		CreatedAt:         now,
		ExpiresAt:         now.Add(t.TTL()),
	}, nil
}

// Expired reports whether the artifact is past its expiry at the given instant.
// Expiry is evaluated lazily at read time; nothing sweeps expired rows.
func (a *Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// Visible reports whether the artifact may appear in feeds.
// Flagged artifacts stay visible pending moderator review; only removed
// artifacts are excluded.
func (a *Artifact) Visible(now time.Time) bool {
	return a.ModerationStatus != StatusRemoved && !a.Expired(now)
}

// fuzz granularity: offsets are bounded to roughly 75 meters so clients see
// a nearby point without learning the exact pin.
const fuzzMaxDeg = 0.00067

// FuzzedLocation returns jittered coordinates for client display. The jitter
// is derived from the artifact id so repeated reads of the same artifact
// report the same point.
func (a *Artifact) FuzzedLocation() (lat, lng float64) {
	h := fnv.New64a()
	h.Write([]byte(a.ID))
	sum := h.Sum64()

	// two independent offsets in [-fuzzMaxDeg, +fuzzMaxDeg]
	latOff := (float64(sum&0xFFFF)/0xFFFF*2 - 1) * fuzzMaxDeg
	lngOff := (float64((sum>>16)&0xFFFF)/0xFFFF*2 - 1) * fuzzMaxDeg
	return a.Lat + latOff, a.Lng + lngOff
}
