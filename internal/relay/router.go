package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pcaplink/internal/audit"
	"pcaplink/internal/config"
	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
	"pcaplink/pkg/health"
	"pcaplink/pkg/middleware"
	"pcaplink/pkg/ratelimit"
	"pcaplink/pkg/tracing"
)

// RouterDeps is everything the HTTP surface is assembled from. Nil optional
// members disable their feature.
type RouterDeps struct {
	Config      *config.Config
	Logger      logger.Logger
	Attachments *Handler
	Stats       *audit.Handler
	Health      *health.CheckerRegistry
	Limiter     *ratelimit.IPLimiter
	ServiceName string
}

// VersionResponse is the body of /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

// NewRouter builds the gin engine and wraps it in the CORS handler.
func NewRouter(deps RouterDeps) http.Handler {
	router := gin.New()

	if deps.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(deps.ServiceName))
	}
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))

	router.GET("/api/health", Liveness)
	router.GET("/api/version", Version)
	if deps.Health != nil {
		router.GET("/health", func(c *gin.Context) {
			h := deps.Health.Check(c.Request.Context())
			statusCode := http.StatusOK
			if h.Status == health.StatusUnhealthy {
				statusCode = http.StatusServiceUnavailable
			}
			c.JSON(statusCode, h)
		})
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}
	if deps.Attachments != nil {
		deps.Attachments.RegisterRoutes(api)
	}
	if deps.Stats != nil {
		deps.Stats.RegisterRoutes(api)
	}

	staticDir := deps.Config.Web.StaticDir
	if staticDir == "" {
		staticDir = constants.DefaultStaticDir
	}
	router.NoRoute(gin.WrapH(http.FileServer(gin.Dir(staticDir, false))))

	return corsHandler(deps.Config.Web.AllowedOrigins).Handler(router)
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length", "Content-Type", middleware.RequestIDHeader},
	})
}

// Liveness godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /api/health [get]
func Liveness(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Version godoc
// @Summary      Build version
// @Tags         health
// @Produce      json
// @Success      200  {object}  relay.VersionResponse
// @Router       /api/version [get]
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{Version: constants.Version})
}
