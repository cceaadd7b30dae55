package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cacheport "go-pulse/internal/infrastructure/cache/port"
	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// FeedCacheTTL is how long an assembled local-pulse response is replayed
// verbatim. Staleness inside the window is an accepted tradeoff for a
// discovery feed, not a bug.
const FeedCacheTTL = 60 * time.Second

// LocalPulseInput is the transient query for the merged feed.
type LocalPulseInput struct {
	RequesterID string
	Lat         float64
	Lng         float64
	RadiusM     int
}

// Response shapes. The assembler owns these because the serialized form is
// what gets cached and replayed byte-identically.

type ArtifactView struct {
	ID         string  `json:"id"`
	OwnerID    string  `json:"user_id"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	RadiusM    int     `json:"radius"`
	CreatedAt  string  `json:"created_at"`
	ExpiresAt  string  `json:"expires_at"`
	Visibility float64 `json:"visibility"`
}

type CandidateView struct {
	UserID     string   `json:"user_id"`
	Age        int      `json:"age"`
	Gender     string   `json:"gender"`
	DistanceM  float64  `json:"distance_m"`
	LastSeenAt *string  `json:"last_seen_at"`
	Indicators []string `json:"compatibility_indicators"`
	Visibility float64  `json:"visibility"`
}

type FeedMeta struct {
	CenterLat       float64 `json:"center_lat"`
	CenterLng       float64 `json:"center_lng"`
	RadiusM         int     `json:"radius_m"`
	ArtifactsCount  int     `json:"artifacts_count"`
	CandidatesCount int     `json:"candidates_count"`
}

type FeedResult struct {
	Artifacts  []ArtifactView  `json:"artifacts"`
	Candidates []CandidateView `json:"candidates"`
	Meta       FeedMeta        `json:"meta"`
}

// LocalPulseUseCase assembles the merged feed: artifacts + candidates,
// decorated with visibility multipliers from the shadow-throttle
// collaborator, cached for FeedCacheTTL under (requester, radius, rounded
// center). Cache hits bypass the store and matcher entirely.
type LocalPulseUseCase struct {
	Feed       *GetFeedUseCase
	Matcher    *MatchCandidatesUseCase
	Visibility repository.VisibilityProvider
	Cache      cacheport.Cache
}

func NewLocalPulseUseCase(feed *GetFeedUseCase, matcher *MatchCandidatesUseCase, visibility repository.VisibilityProvider, cache cacheport.Cache) *LocalPulseUseCase {
	return &LocalPulseUseCase{Feed: feed, Matcher: matcher, Visibility: visibility, Cache: cache}
}

// Execute returns the serialized feed payload. Callers write it as-is so a
// cache hit is byte-identical to the miss that populated it.
func (uc *LocalPulseUseCase) Execute(ctx context.Context, in LocalPulseInput) ([]byte, error) {
	if in.RequesterID == "" {
		return nil, pulse.ErrProfileIncomplete
	}
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

	// Both a miss and a degraded cache fall through to a fresh assembly.
	key := feedCacheKey(in.RequesterID, radius, in.Lat, in.Lng)
	if cached, err := uc.Cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	artifacts, err := uc.Feed.Execute(ctx, GetFeedInput{Lat: in.Lat, Lng: in.Lng, RadiusM: radius})
	if err != nil {
		return nil, err
	}
	matches, err := uc.Matcher.Execute(ctx, MatchCandidatesInput{
		RequesterID: in.RequesterID,
		Lat:         in.Lat,
		Lng:         in.Lng,
		RadiusM:     radius,
	})
	if err != nil {
		return nil, err
	}

	if len(artifacts) > MaxFeedArtifacts {
		artifacts = artifacts[:MaxFeedArtifacts]
	}
	if len(matches) > MaxFeedCandidates {
		matches = matches[:MaxFeedCandidates]
	}

	result := FeedResult{
		Artifacts:  make([]ArtifactView, 0, len(artifacts)),
		Candidates: make([]CandidateView, 0, len(matches)),
		Meta: FeedMeta{
			CenterLat:       in.Lat,
			CenterLng:       in.Lng,
			RadiusM:         radius,
			ArtifactsCount:  len(artifacts),
			CandidatesCount: len(matches),
		},
	}

	for i := range artifacts {
		a := &artifacts[i]
		vis, err := uc.visibilityFor(ctx, a.OwnerID)
		if err != nil {
			return nil, err
		}
		fuzzLat, fuzzLng := a.FuzzedLocation()
		result.Artifacts = append(result.Artifacts, ArtifactView{
			ID:         a.ID,
			OwnerID:    a.OwnerID,
			Type:       string(a.Type),
			Content:    a.Content,
			Lat:        fuzzLat,
			Lng:        fuzzLng,
			RadiusM:    a.VisibilityRadiusM,
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
			ExpiresAt:  a.ExpiresAt.UTC().Format(time.RFC3339),
			Visibility: vis,
		})
	}

	for i := range matches {
		m := &matches[i]
		vis, err := uc.visibilityFor(ctx, m.Profile.UserID)
		if err != nil {
			return nil, err
		}
		var lastSeen *string
		if !m.Profile.LastSeenAt.IsZero() {
			s := m.Profile.LastSeenAt.UTC().Format(time.RFC3339)
			lastSeen = &s
		}
		result.Candidates = append(result.Candidates, CandidateView{
			UserID:     m.Profile.UserID,
			Age:        m.Age,
			Gender:     m.Profile.Gender,
			DistanceM:  m.DistanceM,
			LastSeenAt: lastSeen,
			Indicators: m.Indicators,
			Visibility: vis,
		})
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// best-effort: a failed cache write only costs the next request a rebuild
	_ = uc.Cache.Set(ctx, key, payload, FeedCacheTTL)

	return payload, nil
}

// visibilityFor reads the shadow-throttle multiplier, treating collaborator
// failure as a system fault rather than silently unthrottling.
func (uc *LocalPulseUseCase) visibilityFor(ctx context.Context, userID string) (float64, error) {
	if uc.Visibility == nil {
		return 1.0, nil
	}
	v, err := uc.Visibility.VisibilityMultiplier(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return v, nil
}

// feedCacheKey rounds the center to 4 decimal places (~11 m) so nearby
// repeat requests from the same user share one cached response.
func feedCacheKey(userID string, radiusM int, lat, lng float64) string {
	return fmt.Sprintf("pulse:feed:%s:%d:%.4f:%.4f", userID, radiusM, lat, lng)
}
