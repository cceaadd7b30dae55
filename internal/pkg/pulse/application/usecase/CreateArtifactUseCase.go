package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// CreateArtifactInput carries the data needed to pin new content.
// RadiusM of zero falls back to the default visibility radius.
type CreateArtifactInput struct {
	OwnerID string
	Type    pulse.ArtifactType
	Content string
	Lat     float64
	Lng     float64
	RadiusM int
}

// CreateArtifactUseCase validates, sanitizes and persists a proximity artifact.
// Hexagonal: depends on the repository port, returns the domain entity.
// One class per use case (own file)
type CreateArtifactUseCase struct {
	Repo repository.ArtifactRepository
}

func NewCreateArtifactUseCase(repo repository.ArtifactRepository) *CreateArtifactUseCase {
	return &CreateArtifactUseCase{Repo: repo}
}

// Execute runs the sanitizer, builds the artifact and inserts it under the
// rolling 24h per-type cap. Validation errors pass through unwrapped so the
// controller can tell "looks like spam" apart from "cap reached".
func (uc *CreateArtifactUseCase) Execute(ctx context.Context, in CreateArtifactInput) (*pulse.Artifact, error) {
	clean, err := pulse.SanitizeContent(in.Content)
	if err != nil {
		return nil, err
	}

	artifact, err := pulse.NewArtifact(in.OwnerID, in.Type, clean, in.Lat, in.Lng, in.RadiusM, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	id, err := uc.Repo.CreateArtifact(ctx, *artifact)
	if errors.Is(err, pulse.ErrDailyCapExceeded) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	artifact.ID = id
	return artifact, nil
}
