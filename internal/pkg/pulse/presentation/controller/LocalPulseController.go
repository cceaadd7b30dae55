package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "go-pulse/internal/infrastructure/cache/port"
	"go-pulse/internal/pkg/pulse/application/usecase"
	"go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// LocalPulseController handles the merged feed endpoint (one controller per endpoint)
type LocalPulseController struct {
	UC *usecase.LocalPulseUseCase
}

func NewLocalPulseController(pool *pgxpool.Pool, cache cacheport.Cache) *LocalPulseController {
	artifacts := adapter.NewPgArtifactRepository(pool)
	profiles := adapter.NewPgProfileDirectory(pool)
	uc := usecase.NewLocalPulseUseCase(
		usecase.NewGetFeedUseCase(artifacts),
		usecase.NewMatchCandidatesUseCase(profiles, artifacts),
		adapter.NewPgShadowThrottle(pool),
		cache,
	)
	return &LocalPulseController{UC: uc}
}

func (h *LocalPulseController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester := requesterID(c)
		if requester == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "X-User-ID header is required", "reason": reasonMissingParams})
			return
		}

		lat, lng, ok := parseCenter(c)
		if !ok {
			return
		}

		radius := 0
		if v := c.Query("radius"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "radius must be an integer", "reason": reasonMissingParams})
				return
			}
			radius = n
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		payload, err := h.UC.Execute(ctx, usecase.LocalPulseInput{
			RequesterID: requester,
			Lat:         lat,
			Lng:         lng,
			RadiusM:     radius,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		// The assembled payload is replayed as stored so cache hits stay
		// byte-identical to the miss that built them.
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	}
}
