package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "go-pulse/internal/infrastructure/cache/port"
	qport "go-pulse/internal/infrastructure/queue/port"
	"go-pulse/internal/infrastructure/realtime"
	httpHandler "go-pulse/internal/pkg/pulse/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, cache cacheport.Cache, client qport.Client, hub *realtime.Router) {
	v1 := r.Group("/api/v1")
	// Pass the DB connection, cache and queue client down to the HTTP layer
	httpHandler.RegisterRoutes(v1, pool, cache, client, hub)
}
