package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	cacheadapter "go-pulse/internal/infrastructure/cache/adapter"
	pulse "go-pulse/internal/pkg/pulse/domain"
)

func newPulseFixture() (*LocalPulseUseCase, *memArtifactRepo, *memProfileDirectory, *cacheadapter.MemoryCache) {
	repo := newMemArtifactRepo()
	dir := newMemProfileDirectory()
	cache := cacheadapter.NewMemoryCache()
	uc := NewLocalPulseUseCase(
		NewGetFeedUseCase(repo),
		NewMatchCandidatesUseCase(dir, repo),
		&fixedVisibility{},
		cache,
	)
	return uc, repo, dir, cache
}

func TestLocalPulseValidation(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newPulseFixture()

	if _, err := uc.Execute(context.Background(), LocalPulseInput{Lat: centerLat, Lng: centerLng}); !errors.Is(err, pulse.ErrProfileIncomplete) {
		t.Errorf("missing requester: got %v, want ErrProfileIncomplete", err)
	}
	if _, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "u", Lat: 99, Lng: 0}); !errors.Is(err, pulse.ErrInvalidCoordinates) {
		t.Errorf("bad coords: got %v, want ErrInvalidCoordinates", err)
	}
	if _, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "u", Lat: centerLat, Lng: centerLng, RadiusM: MaxQueryRadiusM + 1}); !errors.Is(err, pulse.ErrRadiusOutOfRange) {
		t.Errorf("bad radius: got %v, want ErrRadiusOutOfRange", err)
	}
}

func TestLocalPulsePayloadShape(t *testing.T) {
	t.Parallel()
	uc, repo, dir, _ := newPulseFixture()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	dir.profiles["cand"] = completeProfile("cand", centerLat+0.001, centerLng, "m", 28, now)
	seedArtifact(repo, "poster", pulse.TypeChat, centerLat+0.001, centerLng, now)

	payload, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result FeedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if result.Meta.ArtifactsCount != 1 || result.Meta.CandidatesCount != 1 {
		t.Errorf("meta counts: %+v", result.Meta)
	}
	if result.Meta.RadiusM != 1000 || result.Meta.CenterLat != centerLat {
		t.Errorf("meta center/radius: %+v", result.Meta)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("artifacts: got %d, want 1", len(result.Artifacts))
	}
	if result.Artifacts[0].Visibility != 1.0 {
		t.Errorf("default visibility: got %f, want 1.0", result.Artifacts[0].Visibility)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].UserID != "cand" {
		t.Errorf("candidates: %+v", result.Candidates)
	}
}

func TestLocalPulseFuzzesArtifactCoordinates(t *testing.T) {
	t.Parallel()
	uc, repo, dir, _ := newPulseFixture()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	id := seedArtifact(repo, "poster", pulse.TypeChat, centerLat, centerLng, now)

	payload, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if err != nil {
		t.Fatal(err)
	}

	var result FeedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("artifacts: got %d, want 1", len(result.Artifacts))
	}
	a, err := repo.GetArtifact(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if result.Artifacts[0].Lat == a.Lat && result.Artifacts[0].Lng == a.Lng {
		t.Error("exact pin leaked to the wire")
	}
}

func TestLocalPulseCacheReplaysBytes(t *testing.T) {
	t.Parallel()
	uc, repo, dir, _ := newPulseFixture()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	seedArtifact(repo, "poster", pulse.TypeChat, centerLat, centerLng, now)

	in := LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000}
	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	// new content inside the TTL window must not change the response
	seedArtifact(repo, "poster2", pulse.TypeChat, centerLat, centerLng, now)

	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached window must replay byte-identical payloads")
	}
}

func TestLocalPulseCacheExpires(t *testing.T) {
	t.Parallel()
	uc, repo, dir, cache := newPulseFixture()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	seedArtifact(repo, "poster", pulse.TypeChat, centerLat, centerLng, now)

	clock := now
	cache.SetClock(func() time.Time { return clock })

	in := LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000}
	first, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	seedArtifact(repo, "poster2", pulse.TypeChat, centerLat, centerLng, now)
	clock = clock.Add(FeedCacheTTL + time.Second)

	second, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, second) {
		t.Error("expired cache entry replayed")
	}

	var result FeedResult
	if err := json.Unmarshal(second, &result); err != nil {
		t.Fatal(err)
	}
	if result.Meta.ArtifactsCount != 2 {
		t.Errorf("rebuilt feed: got %d artifacts, want 2", result.Meta.ArtifactsCount)
	}
}

func TestLocalPulseCacheKeyVariesByRequester(t *testing.T) {
	t.Parallel()
	uc, _, dir, _ := newPulseFixture()
	now := time.Now().UTC()

	dir.profiles["a"] = completeProfile("a", centerLat, centerLng, "f", 30, now)
	dir.profiles["b"] = completeProfile("b", centerLat, centerLng, "m", 40, now)

	fromA, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "a", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if err != nil {
		t.Fatal(err)
	}
	fromB, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "b", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if err != nil {
		t.Fatal(err)
	}
	// a sees b and b sees a, so the candidate lists differ
	if bytes.Equal(fromA, fromB) {
		t.Error("cache must not leak one requester's feed to another")
	}
}

func TestLocalPulseVisibilityDecoration(t *testing.T) {
	t.Parallel()
	repo := newMemArtifactRepo()
	dir := newMemProfileDirectory()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	seedArtifact(repo, "throttled", pulse.TypeChat, centerLat, centerLng, now)

	uc := NewLocalPulseUseCase(
		NewGetFeedUseCase(repo),
		NewMatchCandidatesUseCase(dir, repo),
		&fixedVisibility{multipliers: map[string]float64{"throttled": 0.30}},
		cacheadapter.NewMemoryCache(),
	)

	payload, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if err != nil {
		t.Fatal(err)
	}
	var result FeedResult
	if err := json.Unmarshal(payload, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Artifacts) != 1 || result.Artifacts[0].Visibility != 0.30 {
		t.Errorf("throttled owner visibility: %+v", result.Artifacts)
	}
}

func TestLocalPulseVisibilityFailureIsFault(t *testing.T) {
	t.Parallel()
	repo := newMemArtifactRepo()
	dir := newMemProfileDirectory()
	now := time.Now().UTC()

	dir.profiles["req"] = completeProfile("req", centerLat, centerLng, "f", 30, now)
	seedArtifact(repo, "poster", pulse.TypeChat, centerLat, centerLng, now)

	uc := NewLocalPulseUseCase(
		NewGetFeedUseCase(repo),
		NewMatchCandidatesUseCase(dir, repo),
		&fixedVisibility{failWith: errors.New("throttle store down")},
		cacheadapter.NewMemoryCache(),
	)

	_, err := uc.Execute(context.Background(), LocalPulseInput{RequesterID: "req", Lat: centerLat, Lng: centerLng, RadiusM: 1000})
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("got %v, want ErrPersistence", err)
	}
}
