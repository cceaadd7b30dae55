package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// Candidate result cap and the bounding-box overscan before filtering.
const (
	MaxFeedCandidates = 10
	candidateOverscan = 50

	// window for the active_locally compatibility indicator
	activityWindow = 24 * time.Hour
)

// CandidateMatch is one nearby, mutually compatible user preview.
// Indicators are informational only; they never drive inclusion.
type CandidateMatch struct {
	Profile    pulse.CandidateProfile
	Age        int
	DistanceM  float64
	Indicators []string
}

// MatchCandidatesUseCase discovers nearby candidates filtered by the
// requester's preferences. Precondition: the requester has a complete
// profile (location, gender, birth date); anything less fails the whole
// request with a validation error.
type MatchCandidatesUseCase struct {
	Profiles  repository.ProfileDirectory
	Artifacts repository.ArtifactRepository
}

func NewMatchCandidatesUseCase(profiles repository.ProfileDirectory, artifacts repository.ArtifactRepository) *MatchCandidatesUseCase {
	return &MatchCandidatesUseCase{Profiles: profiles, Artifacts: artifacts}
}

// MatchCandidatesInput is the transient query for candidate discovery.
type MatchCandidatesInput struct {
	RequesterID string
	Lat         float64
	Lng         float64
	RadiusM     int
}

func (uc *MatchCandidatesUseCase) Execute(ctx context.Context, in MatchCandidatesInput) ([]CandidateMatch, error) {
	requester, err := uc.Profiles.GetProfile(ctx, in.RequesterID)
	if err != nil {
		if errors.Is(err, pulse.ErrProfileIncomplete) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !requester.Complete() {
		return nil, pulse.ErrProfileIncomplete
	}

	box := pulse.NewBoundingBox(in.Lat, in.Lng, float64(in.RadiusM))
	nearby, err := uc.Profiles.ListNearby(ctx, box, in.RequesterID, candidateOverscan)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	now := time.Now().UTC()
	matches := make([]CandidateMatch, 0, len(nearby))
	for i := range nearby {
		cand := nearby[i]
		if !cand.HasLocation {
			continue
		}
		dist := pulse.HaversineDistance(in.Lat, in.Lng, cand.Lat, cand.Lng)
		if dist > float64(in.RadiusM) {
			continue
		}
		if !requester.Wants(cand.Gender) {
			continue
		}
		age := cand.Age(now)
		if !requester.AcceptsAge(age) {
			continue
		}

		recent, err := uc.Artifacts.CountRecentByOwner(ctx, cand.UserID, now.Add(-activityWindow))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		matches = append(matches, CandidateMatch{
			Profile:    cand,
			Age:        age,
			DistanceM:  dist,
			Indicators: pulse.CompatibilityIndicators(requester, &cand, recent),
		})
	}

	// Recently active ranks higher; distance breaks ties.
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.Profile.LastSeenAt.Equal(b.Profile.LastSeenAt) {
			return a.Profile.LastSeenAt.After(b.Profile.LastSeenAt)
		}
		return a.DistanceM < b.DistanceM
	})

	if len(matches) > MaxFeedCandidates {
		matches = matches[:MaxFeedCandidates]
	}
	return matches, nil
}
