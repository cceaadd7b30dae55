package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-pulse/internal/pkg/pulse/application/usecase"
	pulse "go-pulse/internal/pkg/pulse/domain"
	"go-pulse/internal/pkg/pulse/persistence/repository/adapter"
)

// GetFeedController handles the artifact feed endpoint (one controller per endpoint)
type GetFeedController struct {
	UC *usecase.GetFeedUseCase
}

func NewGetFeedController(pool *pgxpool.Pool) *GetFeedController {
	repo := adapter.NewPgArtifactRepository(pool)
	uc := usecase.NewGetFeedUseCase(repo)
	return &GetFeedController{UC: uc}
}

func (h *GetFeedController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, lng, ok := parseCenter(c)
		if !ok {
			return
		}

		in := usecase.GetFeedInput{Lat: lat, Lng: lng}
		if v := c.Query("radius"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "radius must be an integer", "reason": reasonMissingParams})
				return
			}
			in.RadiusM = n
		}
		if v := c.Query("type"); v != "" {
			t := pulse.ArtifactType(v)
			in.Type = &t
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		artifacts, err := h.UC.Execute(ctx, in)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]gin.H, 0, len(artifacts))
		for i := range artifacts {
			out = append(out, artifactView(&artifacts[i]))
		}

		c.JSON(http.StatusOK, gin.H{
			"artifacts": out,
			"count":     len(out),
		})
	}
}

// parseCenter reads the required lat/lng query params, writing the 422
// itself when they are missing or malformed.
func parseCenter(c *gin.Context) (lat, lng float64, ok bool) {
	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "lat and lng are required", "reason": reasonMissingParams})
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "lat must be numeric", "reason": reasonMissingParams})
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(lngStr, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "lng must be numeric", "reason": reasonMissingParams})
		return 0, 0, false
	}
	return lat, lng, true
}
