package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/tracker/internal/dbpool"
	"github.com/persistorai/tracker/internal/middleware"
	"github.com/persistorai/tracker/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log            *logrus.Logger
	Pool           *dbpool.Pool
	Hub            *ws.Hub
	Issues         IssueService
	Imports        ImportService
	Labels         LabelService
	Comments       CommentService
	Users          UserService
	Reports        ReportService
	CORSOrigins    []string
	Version        string
	MaxImportBytes int64
	RateLimit      int
	RateBurst      int
}

// maxBodySize bounds JSON request bodies. CSV uploads use MaxImportBytes.
const maxBodySize = 1 << 20 // 1 MB

// Token costs for write paths that touch many rows.
const (
	bulkStatusCost = 5
	importCost     = 20
)

// requestCost weighs a request for the rate limiter by its matched route.
func requestCost(c *gin.Context) int {
	if c.Request.Method != http.MethodPost {
		return 1
	}

	switch c.FullPath() {
	case "/api/v1/issues/bulk-status":
		return bulkStatusCost
	case "/api/v1/issues/import":
		return importCost
	default:
		return 1
	}
}

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, deps.RateLimit, deps.RateBurst).WithCost(requestCost).Handler())
	r.Use(middleware.PrometheusMiddleware("/api/v1/ws"))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	issues := NewIssueHandler(deps.Issues, log)
	imports := NewImportHandler(deps.Imports, log, deps.MaxImportBytes)
	labels := NewLabelHandler(deps.Labels, log)
	comments := NewCommentHandler(deps.Comments, log)
	users := NewUserHandler(deps.Users, log)
	reports := NewReportHandler(deps.Reports, log)
	stats := NewStatsHandler(deps.Pool, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// The import route applies its own, larger body limit.
	api.POST("/issues/import", imports.Import)

	limited := api.Group("", middleware.MaxBodySize(maxBodySize))

	// Issues.
	limited.GET("/issues", issues.List)
	limited.POST("/issues", issues.Create)
	limited.POST("/issues/bulk-status", issues.BulkStatus)
	limited.GET("/issues/:id", issues.Get)
	limited.PATCH("/issues/:id", issues.Update)
	limited.GET("/issues/:id/timeline", issues.Timeline)
	limited.POST("/issues/:id/comments", comments.Create)
	limited.PUT("/issues/:id/labels", labels.ReplaceIssueLabels)

	// Comments.
	limited.GET("/comments", comments.List)
	limited.GET("/comments/:id", comments.Get)

	// Labels.
	limited.GET("/labels", labels.List)
	limited.POST("/labels", labels.Create)
	limited.GET("/labels/:id", labels.Get)
	limited.PUT("/labels/:id", labels.Rename)
	limited.DELETE("/labels/:id", labels.Delete)

	// Users.
	limited.GET("/users", users.List)
	limited.POST("/users", users.Create)
	limited.GET("/users/:id", users.Get)

	// Reports.
	limited.GET("/reports/top-assignees", reports.TopAssignees)
	limited.GET("/reports/latency", reports.Latency)
	limited.GET("/stats", stats.GetStats)

	// WebSocket change feed.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
