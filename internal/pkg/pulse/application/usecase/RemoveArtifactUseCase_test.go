package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
)

func TestRemoveArtifactByOwner(t *testing.T) {
	t.Parallel()
	repo := newMemArtifactRepo()
	now := time.Now().UTC()
	id := seedArtifact(repo, "owner", pulse.TypeBoardPost, centerLat, centerLng, now)

	uc := NewRemoveArtifactUseCase(repo)
	if err := uc.Execute(context.Background(), RemoveArtifactInput{ArtifactID: id, RequesterID: "owner"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := repo.GetArtifact(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if a.ModerationStatus != pulse.StatusRemoved {
		t.Errorf("status: got %s, want removed", a.ModerationStatus)
	}

	// removed artifacts disappear from the feed
	feed := NewGetFeedUseCase(repo)
	got, err := feed.Execute(context.Background(), GetFeedInput{Lat: centerLat, Lng: centerLng})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("removed artifact still served: %v", got)
	}
}

func TestRemoveArtifactNotOwner(t *testing.T) {
	t.Parallel()
	repo := newMemArtifactRepo()
	id := seedArtifact(repo, "owner", pulse.TypeBoardPost, centerLat, centerLng, time.Now().UTC())

	uc := NewRemoveArtifactUseCase(repo)
	err := uc.Execute(context.Background(), RemoveArtifactInput{ArtifactID: id, RequesterID: "intruder"})
	if !errors.Is(err, pulse.ErrNotOwner) {
		t.Errorf("got %v, want ErrNotOwner", err)
	}

	a, getErr := repo.GetArtifact(context.Background(), id)
	if getErr != nil {
		t.Fatal(getErr)
	}
	if a.ModerationStatus != pulse.StatusClean {
		t.Errorf("status mutated by rejected removal: %s", a.ModerationStatus)
	}
}

func TestRemoveArtifactNotFound(t *testing.T) {
	t.Parallel()
	uc := NewRemoveArtifactUseCase(newMemArtifactRepo())
	err := uc.Execute(context.Background(), RemoveArtifactInput{ArtifactID: "nope", RequesterID: "owner"})
	if !errors.Is(err, pulse.ErrArtifactNotFound) {
		t.Errorf("got %v, want ErrArtifactNotFound", err)
	}
}

func TestRemoveArtifactIdempotentStatus(t *testing.T) {
	t.Parallel()
	repo := newMemArtifactRepo()
	id := seedArtifact(repo, "owner", pulse.TypeBoardPost, centerLat, centerLng, time.Now().UTC())

	uc := NewRemoveArtifactUseCase(repo)
	for i := 0; i < 2; i++ {
		if err := uc.Execute(context.Background(), RemoveArtifactInput{ArtifactID: id, RequesterID: "owner"}); err != nil {
			t.Fatalf("removal %d: %v", i, err)
		}
	}
}
