package controller

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-pulse/internal/pkg/pulse/application/usecase"
	"go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// RemoveArtifactController handles owner removal (one controller per endpoint)
type RemoveArtifactController struct {
	UC       *usecase.RemoveArtifactUseCase
	Notifier usecase.RealtimeNotifier
}

func NewRemoveArtifactController(pool *pgxpool.Pool, notifier usecase.RealtimeNotifier) *RemoveArtifactController {
	repo := adapter.NewPgArtifactRepository(pool)
	uc := usecase.NewRemoveArtifactUseCase(repo)
	return &RemoveArtifactController{UC: uc, Notifier: notifier}
}

func (h *RemoveArtifactController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		artifactID := c.Param("artifactId")
		requester := requesterID(c)
		if requester == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "X-User-ID header is required", "reason": reasonMissingParams})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		err := h.UC.Execute(ctx, usecase.RemoveArtifactInput{
			ArtifactID:  artifactID,
			RequesterID: requester,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		if err := h.Notifier.Publish(ctx, usecase.PublicPulseTopic, map[string]any{
			"type":        usecase.EventArtifactRemoved,
			"artifact_id": artifactID,
		}, false); err != nil {
			log.Printf("pulse: publish %s: %v", usecase.EventArtifactRemoved, err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Removed"})
	}
}
