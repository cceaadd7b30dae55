package controller

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-pulse/internal/pkg/pulse/application/usecase"
	pulse "go-pulse/internal/pkg/pulse/domain"
	"go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// CreateArtifactController handles the artifact creation endpoint
// (one controller per endpoint)
type CreateArtifactController struct {
	UC       *usecase.CreateArtifactUseCase
	Notifier usecase.RealtimeNotifier
}

func NewCreateArtifactController(pool *pgxpool.Pool, notifier usecase.RealtimeNotifier) *CreateArtifactController {
	repo := adapter.NewPgArtifactRepository(pool)
	uc := usecase.NewCreateArtifactUseCase(repo)
	return &CreateArtifactController{UC: uc, Notifier: notifier}
}

// createArtifactRequest is the DTO for the HTTP request body
type createArtifactRequest struct {
	Type    string   `json:"type" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
	RadiusM int      `json:"radius"`
}

func (h *CreateArtifactController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := requesterID(c)
		if owner == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "X-User-ID header is required", "reason": reasonMissingParams})
			return
		}

		var req createArtifactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonMissingParams})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		artifact, err := h.UC.Execute(ctx, usecase.CreateArtifactInput{
			OwnerID: owner,
			Type:    pulse.ArtifactType(req.Type),
			Content: req.Content,
			Lat:     *req.Lat,
			Lng:     *req.Lng,
			RadiusM: req.RadiusM,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		// best-effort fan-out; a hub failure never fails the create
		if err := h.Notifier.Publish(ctx, usecase.PublicPulseTopic, map[string]any{
			"type":        usecase.EventArtifactCreated,
			"artifact_id": artifact.ID,
		}, false); err != nil {
			log.Printf("pulse: publish %s: %v", usecase.EventArtifactCreated, err)
		}

		c.JSON(http.StatusCreated, gin.H{"artifact": artifactView(artifact)})
	}
}

// artifactView shapes an artifact for the wire: fuzzed coordinates, RFC3339
// timestamps.
func artifactView(a *pulse.Artifact) gin.H {
	lat, lng := a.FuzzedLocation()
	return gin.H{
		"id":                a.ID,
		"user_id":           a.OwnerID,
		"type":              a.Type,
		"content":           a.Content,
		"lat":               lat,
		"lng":               lng,
		"radius":            a.VisibilityRadiusM,
		"moderation_status": a.ModerationStatus,
		"created_at":        a.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at":        a.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
