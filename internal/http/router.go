// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-attendance-backend/internal/broadcast"
	"github.com/tbourn/go-attendance-backend/internal/config"
	"github.com/tbourn/go-attendance-backend/internal/domain"
	"github.com/tbourn/go-attendance-backend/internal/http/handlers"
	"github.com/tbourn/go-attendance-backend/internal/http/middleware"
	"github.com/tbourn/go-attendance-backend/internal/repo"
	"github.com/tbourn/go-attendance-backend/internal/services"
)

// syncRepoShim adapts the repository free functions to the services.SyncRepo
// interface expected by the BulkSyncService. This keeps services decoupled
// from the concrete repo package while reusing existing functions.
type syncRepoShim struct{}

// FindServicesByIDs proxies repo.FindServicesByIDs.
func (syncRepoShim) FindServicesByIDs(ctx context.Context, db *gorm.DB, tenantID string, ids []string) ([]domain.Service, error) {
	return repo.FindServicesByIDs(ctx, db, tenantID, ids)
}

// GetCheckIn proxies repo.GetCheckIn.
func (syncRepoShim) GetCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string) (*domain.CheckIn, error) {
	return repo.GetCheckIn(ctx, db, serviceID, userID)
}

// CreateCheckIn proxies repo.CreateCheckIn.
func (syncRepoShim) CreateCheckIn(ctx context.Context, db *gorm.DB, serviceID, userID string, checkInTime time.Time, isNewBeliever bool) (*domain.CheckIn, error) {
	return repo.CreateCheckIn(ctx, db, serviceID, userID, checkInTime, isNewBeliever)
}

// UpdateCheckInTime proxies repo.UpdateCheckInTime.
func (syncRepoShim) UpdateCheckInTime(ctx context.Context, db *gorm.DB, id string, checkInTime time.Time) error {
	return repo.UpdateCheckInTime(ctx, db, id, checkInTime)
}

// CountCheckIns proxies repo.CountCheckIns.
func (syncRepoShim) CountCheckIns(ctx context.Context, db *gorm.DB, serviceID string) (int64, error) {
	return repo.CountCheckIns(ctx, db, serviceID)
}

// CountPresent proxies repo.CountPresent.
func (syncRepoShim) CountPresent(ctx context.Context, db *gorm.DB, serviceID string) (int64, error) {
	return repo.CountPresent(ctx, db, serviceID)
}

// attendanceRepoShim adapts the repository free functions to the
// services.AttendanceRepo interface expected by the AttendanceService.
type attendanceRepoShim struct{}

// GetService proxies repo.GetService.
func (attendanceRepoShim) GetService(ctx context.Context, db *gorm.DB, tenantID, id string) (*domain.Service, error) {
	return repo.GetService(ctx, db, tenantID, id)
}

// CountCheckIns proxies repo.CountCheckIns.
func (attendanceRepoShim) CountCheckIns(ctx context.Context, db *gorm.DB, serviceID string) (int64, error) {
	return repo.CountCheckIns(ctx, db, serviceID)
}

// ListCheckInsPage proxies repo.ListCheckInsPage.
func (attendanceRepoShim) ListCheckInsPage(ctx context.Context, db *gorm.DB, serviceID string, offset, limit int) ([]domain.CheckIn, error) {
	return repo.ListCheckInsPage(ctx, db, serviceID, offset, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// authenticated mobile sync API under cfg.APIBasePath.
//
// pub receives live attendance updates from the sync service and hub serves
// the websocket feed; both may be nil when broadcasting is disabled.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers
//  8. Access (authentication), on the API group only
//  9. Rate limiter, on the API group after Access so the key is the
//     authenticated user, not the shared NAT/proxy IP
func RegisterRoutes(r *gin.Engine, db *gorm.DB, pub broadcast.Publisher, hub *broadcast.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. The built-in mask set already
	// covers credentials and the X-* identity headers.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; a full 100-item batch is well under)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-Tenant-ID", "X-Church-ID", "X-Roles"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "X-Tenant-ID", "X-Church-ID", "X-Roles"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/broadcast
	syncSvc := services.NewBulkSyncService(db, syncRepoShim{}, pub)
	if cfg.SyncMaxBatch > 0 {
		syncSvc.MaxBatch = cfg.SyncMaxBatch
	}
	attSvc := &services.AttendanceService{DB: db, Repo: attendanceRepoShim{}}
	h := handlers.New(syncSvc, attSvc, hub, cfg.SyncMaxBatch)

	// Authenticated mobile API
	apiBase := cfg.APIBasePath // e.g. "/api/mobile/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Access([]byte(cfg.Auth.Secret), cfg.Auth.AllowHeaders))

	// Token-bucket rate limiter. Installed after Access so KeyByUserOrIP sees
	// the resolved user id; congregations behind one NAT IP would otherwise
	// share a single bucket.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	api.Use(rl.Handler())

	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Check-in sync
		api.POST("/sync/checkins/bulk", h.BulkSyncCheckIns)
		api.POST("/checkins", h.CheckIn)

		// Attendance
		api.GET("/services/:id/attendance", h.ListServiceAttendance)
		api.GET("/ws/attendance", h.AttendanceFeed)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
