package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"archive.alpha.io/archive/internal/api/handlers"
	"archive.alpha.io/archive/internal/api/middleware"
	"archive.alpha.io/archive/internal/config"
	"archive.alpha.io/archive/internal/metrics"
	"archive.alpha.io/archive/internal/pkg/logger"
	"archive.alpha.io/archive/internal/pkg/worker"
)

// Origins allowed when none are configured (local frontends).
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server, pools *worker.Pools) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))

	router.GET("/metrics", metricsHandler(pools))

	// Runtime log level: GET reads, PUT {"level":"debug"} sets.
	router.Any("/admin/log-level", gin.WrapH(logger.Level()))

	server.RegisterRoutes(router.Group("/api/v1"))
	return router
}

// metricsHandler refreshes worker pool gauges before each scrape.
func metricsHandler(pools *worker.Pools) gin.HandlerFunc {
	h := metrics.Handler()
	return func(c *gin.Context) {
		if pools != nil {
			metrics.RecordWorkerPools(pools.Metrics())
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func buildCORSConfig(cfg *config.Config) cors.Config {
	out := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	// A wildcard with credentials is rejected by browsers; only honour it
	// behind the explicit unsafe flag, and then without credentials.
	if cfg.Server.UnsafeAllowAllOrigins {
		out.AllowAllOrigins = true
		out.AllowCredentials = false
		return out
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, o := range cfg.Server.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "" || o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	out.AllowOrigins = origins
	return out
}
