package controller

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	queueport "go-pulse/internal/infrastructure/queue/port"
	"go-pulse/internal/pkg/pulse/application/task"
	"go-pulse/internal/pkg/pulse/application/usecase"
	"go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// FlagArtifactController handles the flag endpoint (one controller per endpoint).
// On the escalating flag it publishes the transition and enqueues a
// moderation review task.
type FlagArtifactController struct {
	UC       *usecase.FlagArtifactUseCase
	Notifier usecase.RealtimeNotifier
	Q        queueport.Client
}

func NewFlagArtifactController(pool *pgxpool.Pool, notifier usecase.RealtimeNotifier, q queueport.Client) *FlagArtifactController {
	repo := adapter.NewPgArtifactRepository(pool)
	uc := usecase.NewFlagArtifactUseCase(repo)
	return &FlagArtifactController{UC: uc, Notifier: notifier, Q: q}
}

func (h *FlagArtifactController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		artifactID := c.Param("artifactId")
		reporter := requesterID(c)
		if reporter == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "X-User-ID header is required", "reason": reasonMissingParams})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.FlagArtifactInput{
			ArtifactID: artifactID,
			ReporterID: reporter,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if out.Escalated {
			if err := h.Notifier.Publish(ctx, usecase.PublicPulseTopic, map[string]any{
				"type":        usecase.EventArtifactFlagged,
				"artifact_id": artifactID,
			}, false); err != nil {
				log.Printf("pulse: publish %s: %v", usecase.EventArtifactFlagged, err)
			}
			h.enqueueReview(ctx, artifactID, out.FlagCount)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":    "Flag recorded",
			"flag_count": out.FlagCount,
			"status":     out.Status,
		})
	}
}

// enqueueReview is best-effort: losing a review task degrades moderator
// tooling, not the flag itself, which is already persisted.
func (h *FlagArtifactController) enqueueReview(ctx context.Context, artifactID string, flagCount int) {
	if h.Q == nil {
		return
	}
	payload, err := json.Marshal(task.ModerationReviewTaskPayload{
		ArtifactID: artifactID,
		FlagCount:  flagCount,
	})
	if err != nil {
		log.Printf("pulse: encode review task: %v", err)
		return
	}
	opts := queueport.EnqueueOption{Queue: "moderation", MaxRetry: 5}
	if _, err := h.Q.Enqueue(ctx, queueport.Task{Type: task.ModerationReviewTaskType, Payload: payload}, opts); err != nil {
		log.Printf("pulse: enqueue review task: %v", err)
	}
}
