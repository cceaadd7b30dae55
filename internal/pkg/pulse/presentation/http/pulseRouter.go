package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "go-pulse/internal/infrastructure/cache/port"
	qport "go-pulse/internal/infrastructure/queue/port"
	"go-pulse/internal/infrastructure/ratelimit"
	"go-pulse/internal/infrastructure/realtime"
	"go-pulse/internal/pkg/pulse/presentation/controller"
)

// RegisterRoutes registers pulse HTTP endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, hub *realtime.Router) {
	notifier := realtime.NewHubNotifier(hub)

	createCtl := controller.NewCreateArtifactController(pool, notifier)
	feedCtl := controller.NewGetFeedController(pool)
	pulseCtl := controller.NewLocalPulseController(pool, cache)
	flagCtl := controller.NewFlagArtifactController(pool, notifier, client)
	removeCtl := controller.NewRemoveArtifactController(pool, notifier)
	socketCtl := controller.NewPulseSocketController(hub)

	// Drops and flags are throttled per user; reads are not.
	writeLimit := ratelimit.New(20, time.Minute, 5)

	// POST /api/v1/pulse/artifacts -> drop a new artifact
	g.POST("/pulse/artifacts", ratelimit.Middleware(writeLimit), createCtl.Handle())

	// GET /api/v1/pulse/feed -> active artifacts near a point
	g.GET("/pulse/feed", feedCtl.Handle())

	// GET /api/v1/pulse/local-pulse -> combined artifact and candidate feed
	g.GET("/pulse/local-pulse", pulseCtl.Handle())

	// POST /api/v1/pulse/artifacts/:artifactId/flag -> report an artifact
	g.POST("/pulse/artifacts/:artifactId/flag", ratelimit.Middleware(writeLimit), flagCtl.Handle())

	// DELETE /api/v1/pulse/artifacts/:artifactId -> owner removal
	g.DELETE("/pulse/artifacts/:artifactId", removeCtl.Handle())

	// GET /api/v1/pulse/ws -> websocket endpoint for realtime pulse events
	g.GET("/pulse/ws", socketCtl.Handle())
}
