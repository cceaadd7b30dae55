package usecase

import (
	"context"
	"fmt"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// Query radius bounds in meters, and the artifact cap every feed read obeys.
const (
	MinQueryRadiusM     = 100
	MaxQueryRadiusM     = 10000
	DefaultQueryRadiusM = 1000

	MaxFeedArtifacts = 20

	// overscan bounds the bounding-box candidate set fetched before the
	// exact-distance post-filter trims it down.
	artifactOverscan = 100
)

// GetFeedInput is the transient query object for an artifact feed read.
type GetFeedInput struct {
	Lat     float64
	Lng     float64
	RadiusM int
	Type    *pulse.ArtifactType
}

// GetFeedUseCase returns the visible artifacts around a point:
// bounding-box prune, exact haversine filter, newest first, capped.
type GetFeedUseCase struct {
	Repo repository.ArtifactRepository
}

func NewGetFeedUseCase(repo repository.ArtifactRepository) *GetFeedUseCase {
	return &GetFeedUseCase{Repo: repo}
}

func (uc *GetFeedUseCase) Execute(ctx context.Context, in GetFeedInput) ([]pulse.Artifact, error) {
	if !pulse.ValidCoordinates(in.Lat, in.Lng) {
		return nil, pulse.ErrInvalidCoordinates
	}
	radius := in.RadiusM
	if radius == 0 {
		radius = DefaultQueryRadiusM
	}
	if radius < MinQueryRadiusM || radius > MaxQueryRadiusM {
		return nil, pulse.ErrRadiusOutOfRange
	}
	if in.Type != nil && !in.Type.IsValid() {
		return nil, pulse.ErrUnknownType
	}

	now := time.Now().UTC()
	q := repository.ArtifactQuery{
		Box:   pulse.NewBoundingBox(in.Lat, in.Lng, float64(radius)),
		Type:  in.Type,
		Now:   now,
		Limit: artifactOverscan,
	}

	rows, err := uc.Repo.QueryActive(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The box over-selects; keep only points inside the exact radius.
	out := make([]pulse.Artifact, 0, len(rows))
	for _, a := range rows {
		if pulse.HaversineDistance(in.Lat, in.Lng, a.Lat, a.Lng) > float64(radius) {
			continue
		}
		out = append(out, a)
		if len(out) == MaxFeedArtifacts {
			break
		}
	}
	return out, nil
}
