package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "go-pulse/cmd/api/router/v1"
	cacheadapter "go-pulse/internal/infrastructure/cache/adapter"
	cacheport "go-pulse/internal/infrastructure/cache/port"
	"go-pulse/internal/infrastructure/database"
	queueadapter "go-pulse/internal/infrastructure/queue/adapter"
	"go-pulse/internal/infrastructure/realtime"
	"go-pulse/internal/pkg/pulse/application/task"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Feed cache: Redis when reachable, in-process otherwise
	cache := newCache(ctx)
	defer cache.Close()

	qclient, err := queueadapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatalf("failed to create queue client: %v", err)
	}
	defer qclient.Close()

	hub := realtime.NewRouter()
	defer hub.Close()

	qserver, err := queueadapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}
	task.RegisterModerationReviewTask(qserver, pool, realtime.NewHubNotifier(hub))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go func() {
		if err := qserver.Run(workerCtx); err != nil {
			log.Printf("queue server stopped: %v", err)
		}
	}()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	v1.RegisterRoutes(r, pool, cache, qclient, hub)

	srv := &http.Server{
		Addr:    listenAddr(),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := qserver.Stop(shutdownCtx); err != nil {
		log.Printf("queue server shutdown: %v", err)
	}
}

// newCache prefers Redis and falls back to the in-process cache when it is unreachable.
func newCache(ctx context.Context) cacheport.Cache {
	redis, err := cacheadapter.NewRedisAdapter()
	if err != nil {
		log.Printf("Warning: redis unavailable, using in-memory cache: %v", err)
		return cacheadapter.NewMemoryCache()
	}
	if err := redis.Ping(ctx); err != nil {
		log.Printf("Warning: redis unreachable, using in-memory cache: %v", err)
		_ = redis.Close()
		return cacheadapter.NewMemoryCache()
	}
	return redis
}

func listenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
