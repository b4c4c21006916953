package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/jengzang/densitymap-backend-go/internal/handler"
	"github.com/jengzang/densitymap-backend-go/internal/metrics"
	"github.com/jengzang/densitymap-backend-go/internal/middleware"
	"github.com/jengzang/densitymap-backend-go/internal/service"
)

// Dependencies are the collaborators the router wires into handlers
type Dependencies struct {
	Service *service.DensityService
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// RateLimiter is optional; nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	// JWTSecret is optional; empty leaves /api/v1 unauthenticated
	JWTSecret string
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.Logger(logger.Named("http"), "/health", "/metrics"),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Density map API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	densityHandler := handler.NewDensityHandler(deps.Service)
	compute := []gin.HandlerFunc{middleware.Gzip(gzip.DefaultCompression)}
	if deps.RateLimiter != nil {
		compute = append([]gin.HandlerFunc{middleware.RateLimit(deps.RateLimiter)}, compute...)
	}

	chain := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, compute...), h)
	}

	// Legacy route for the web client; never behind auth
	r.POST("/densityMap", chain(densityHandler.GenerateDensityMap)...)

	// API 路由组
	api := r.Group("/api/v1")
	if deps.JWTSecret != "" {
		api.Use(middleware.JWTAuth(deps.JWTSecret))
	}
	{
		densityMap := api.Group("/density-map")
		{
			densityMap.POST("", chain(densityHandler.GenerateDensityMap)...)
			densityMap.GET("/runs", densityHandler.ListRuns)
		}
	}

	return r
}
