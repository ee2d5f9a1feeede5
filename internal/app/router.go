package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/handler"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RunHandler   *handler.RunHandler
	TripHandler  *handler.TripHandler
	RedisClient  *redis.Client
	NewRelicApp  *newrelic.Application
	Logger       *slog.Logger
	TriggerRate  rate.Limit
	TriggerBurst int
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		runs := v1.Group("/assignment-runs")
		{
			runs.POST("",
				middleware.RateLimit(middleware.NewIPRateLimiter(deps.TriggerRate, deps.TriggerBurst)),
				middleware.Idempotency(deps.RedisClient, deps.Logger),
				deps.RunHandler.TriggerRun)
			runs.GET("/:date", deps.RunHandler.GetRun)
		}

		v1.GET("/trips", deps.TripHandler.GetByDate)
	}

	return router
}
