package usecase

import (
	"context"
	"errors"
	"fmt"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// RemoveArtifactInput identifies the artifact and who is asking.
type RemoveArtifactInput struct {
	ArtifactID  string
	RequesterID string
}

// RemoveArtifactUseCase applies the owner-removal path of the moderation
// state machine: only the owner may remove, and removed is terminal
// regardless of the current status.
type RemoveArtifactUseCase struct {
	Repo repository.ArtifactRepository
}

func NewRemoveArtifactUseCase(repo repository.ArtifactRepository) *RemoveArtifactUseCase {
	return &RemoveArtifactUseCase{Repo: repo}
}

func (uc *RemoveArtifactUseCase) Execute(ctx context.Context, in RemoveArtifactInput) error {
	if in.ArtifactID == "" || in.RequesterID == "" {
		return fmt.Errorf("artifactId and requesterId are required")
	}

	artifact, err := uc.Repo.GetArtifact(ctx, in.ArtifactID)
	if errors.Is(err, pulse.ErrArtifactNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if artifact.OwnerID != in.RequesterID {
		return pulse.ErrNotOwner
	}

	if err := uc.Repo.MarkRemoved(ctx, in.ArtifactID); err != nil {
		if errors.Is(err, pulse.ErrArtifactNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
