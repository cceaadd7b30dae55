package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-pulse/internal/pkg/pulse/application/usecase"
	pulse "go-pulse/internal/pkg/pulse/domain"
)

// Reason codes let clients tell "your content looks like spam" apart from
// "you've hit today's post limit" without parsing error strings.
const (
	reasonContentBlocked     = "content_blocked"
	reasonContentLength      = "content_length"
	reasonDailyCap           = "daily_cap_exceeded"
	reasonRadiusBounds       = "radius_out_of_bounds"
	reasonInvalidCoordinates = "invalid_coordinates"
	reasonUnknownType        = "unknown_type"
	reasonMissingParams      = "missing_params"
	reasonProfileIncomplete  = "profile_incomplete"
)

// respondError maps the error taxonomy onto HTTP statuses: validation-class
// errors are 422 with a reason discriminator, authorization 403, not-found
// 404, and only persistence faults become 5xx.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pulse.ErrContentBlocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonContentBlocked})
	case errors.Is(err, pulse.ErrContentLength):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonContentLength})
	case errors.Is(err, pulse.ErrDailyCapExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonDailyCap})
	case errors.Is(err, pulse.ErrRadiusOutOfRange):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonRadiusBounds})
	case errors.Is(err, pulse.ErrInvalidCoordinates):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonInvalidCoordinates})
	case errors.Is(err, pulse.ErrUnknownType):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonUnknownType})
	case errors.Is(err, pulse.ErrProfileIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reasonProfileIncomplete})
	case errors.Is(err, pulse.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, pulse.ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	}
}

// requesterID extracts the authenticated user id injected by the upstream
// gateway. Auth itself is outside this subsystem.
func requesterID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}
