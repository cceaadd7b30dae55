package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "go-pulse/internal/infrastructure/queue/port"
	"go-pulse/internal/pkg/pulse/application/usecase"
	pulse "go-pulse/internal/pkg/pulse/domain"
	repoAdapter "go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// ModerationReviewTaskType is the queue task name for escalated artifacts.
const ModerationReviewTaskType = "pulse:moderation_review"

// ModerationReviewTaskPayload is the JSON payload transported via the queue.
type ModerationReviewTaskPayload struct {
	ArtifactID string `json:"artifactId"`
	FlagCount  int    `json:"flagCount"`
}

// RegisterModerationReviewTask binds the escalation handler to the provided
// server. When an artifact crosses the flag threshold the handler re-reads
// the row and pushes a private event onto the moderation channel.
func RegisterModerationReviewTask(srv qport.Server, pool *pgxpool.Pool, notifier usecase.RealtimeNotifier) {
	srv.Register(ModerationReviewTaskType, func(ctx context.Context, t qport.Task) error {
		var p ModerationReviewTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		repo := repoAdapter.NewPgArtifactRepository(pool)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		artifact, err := repo.GetArtifact(ctx, p.ArtifactID)
		if errors.Is(err, pulse.ErrArtifactNotFound) {
			// already gone; nothing for moderators to review
			return nil
		}
		if err != nil {
			return err
		}
		if artifact.ModerationStatus == pulse.StatusRemoved {
			return nil
		}

		return notifier.Publish(ctx, usecase.ModerationTopic, map[string]any{
			"type":        usecase.EventArtifactFlagged,
			"artifact_id": artifact.ID,
			"owner_id":    artifact.OwnerID,
			"flag_count":  artifact.FlagCount,
		}, true)
	})
}
