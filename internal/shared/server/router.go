package server

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"career-backend/internal/aiops"
	"career-backend/internal/generations"
	"career-backend/internal/graphql"
	"career-backend/internal/materials"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/storage/db"
	"career-backend/internal/shared/telemetry"
)

const (
	rateGroupAI      = "AI"
	rateGroupDefault = "DEFAULT"

	healthPingTimeout = 2 * time.Second
)

// RouterDeps are the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	DB                 *sql.DB
	AIHandler          *aiops.Handler
	GraphQLHandler     *graphql.Handler
	MaterialsHandler   *materials.Handler
	GenerationsHandler *generations.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimitConfig(deps.Config.AIRatePerMinute)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", health(deps.DB))
	if deps.AIHandler != nil {
		deps.AIHandler.RegisterRoutes(api)
	}
	if deps.GraphQLHandler != nil {
		deps.GraphQLHandler.RegisterRoutes(api)
	}
	if deps.MaterialsHandler != nil {
		deps.MaterialsHandler.RegisterRoutes(api)
	}
	if deps.GenerationsHandler != nil {
		deps.GenerationsHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})
	return r
}

// health reports database reachability. Without a database the in-memory
// repositories serve and the process is healthy.
func health(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sqlDB == nil {
			respond.OK(c, gin.H{"ok": true, "database": "memory"})
			return
		}
		if err := db.Ping(c.Request.Context(), sqlDB, healthPingTimeout); err != nil {
			telemetry.Warn("health.db_unreachable", map[string]any{"error": err.Error()})
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "database": "down"})
			return
		}
		respond.OK(c, gin.H{"ok": true, "database": "up", "pool": db.PoolStats(sqlDB)})
	}
}

func rateLimitConfig(aiPerMinute int) middleware.RateLimitConfig {
	if aiPerMinute <= 0 {
		aiPerMinute = 30
	}
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		GroupFor:     rateGroupFor,
		Rules: map[string]middleware.RateLimitRule{
			rateGroupAI:      {Rate: float64(aiPerMinute) / 60, Burst: max(1, aiPerMinute/6)},
			rateGroupDefault: {Rate: 10, Burst: 20},
		},
	}
}

// rateGroupFor puts every model-backed route in the AI group.
func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	if strings.HasPrefix(path, "/api/v1/ai/") || path == "/api/v1/graphql" {
		if path == "/api/v1/ai/operations" {
			return rateGroupDefault
		}
		return rateGroupAI
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
