package usecase

import (
	"context"
	"errors"
	"fmt"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// FlagArtifactInput identifies the artifact and the reporting user.
type FlagArtifactInput struct {
	ArtifactID string
	ReporterID string
}

// FlagArtifactUseCase runs the moderation escalation step for one report.
// The atomic increment-and-transition lives in the repository; this layer
// interprets the outcome. One reporter counts at most once per artifact.
type FlagArtifactUseCase struct {
	Repo repository.ArtifactRepository
}

func NewFlagArtifactUseCase(repo repository.ArtifactRepository) *FlagArtifactUseCase {
	return &FlagArtifactUseCase{Repo: repo}
}

// Execute records the flag. Flags against already-flagged or removed
// artifacts still count but never re-trigger a transition.
func (uc *FlagArtifactUseCase) Execute(ctx context.Context, in FlagArtifactInput) (repository.FlagOutcome, error) {
	if in.ArtifactID == "" || in.ReporterID == "" {
		return repository.FlagOutcome{}, fmt.Errorf("artifactId and reporterId are required")
	}

	out, err := uc.Repo.RecordFlag(ctx, in.ArtifactID, in.ReporterID, pulse.FlagThreshold)
	if errors.Is(err, pulse.ErrArtifactNotFound) {
		return repository.FlagOutcome{}, err
	}
	if err != nil {
		return repository.FlagOutcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}
