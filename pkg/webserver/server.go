package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/balogunquadri/banshee-bn-backend/pkg/config"
	"github.com/balogunquadri/banshee-bn-backend/pkg/db"
	"github.com/balogunquadri/banshee-bn-backend/pkg/log"
	"github.com/balogunquadri/banshee-bn-backend/pkg/trips"
	"github.com/balogunquadri/banshee-bn-backend/pkg/utils"
	"github.com/balogunquadri/banshee-bn-backend/pkg/validation"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	db         *db.DB
	repo       *db.Repository
	logger     *log.Logger
	router     *gin.Engine
	httpServer *http.Server
	jwtManager *utils.JWTManager
	validator  *validation.Validator
	trips      *trips.Service
}

// New creates a new HTTP server instance. channels names the outbound
// notification channels every trip event is queued for.
func New(cfg *config.Config, database *db.DB, logger *log.Logger, channels []string) *Server {
	repo := db.NewRepository(database)

	if gin.Mode() != gin.TestMode {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	server := &Server{
		config:     cfg,
		db:         database,
		repo:       repo,
		logger:     logger,
		router:     gin.New(),
		jwtManager: utils.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpirationHours),
		validator:  validation.New(repo),
		trips:      trips.NewService(repo, logger, channels, cfg.Queue.RetryAttempts),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      server.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithField("panic", recovered).Error("Panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			utils.NewErrorResponse(http.StatusInternalServerError, utils.ServerErrorMessage))
	}))

	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	store := cookie.NewStore([]byte(s.config.Security.JWTSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.config.Security.JWTExpirationHours * 3600,
		HttpOnly: true,
		Secure:   s.config.Security.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.router.Use(sessions.Sessions(s.config.Security.SessionCookieName, store))

	if s.config.Security.RateLimitEnabled {
		s.router.Use(s.rateLimitMiddleware())
	}

	s.router.Use(s.securityHeadersMiddleware())
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		s.logger.LogRequest(
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			latency.Milliseconds(),
		)

		if latency > 1*time.Second {
			s.logger.LogPerformance("http_request", latency.Milliseconds(), map[string]interface{}{
				"method": c.Request.Method,
				"path":   path,
				"query":  raw,
				"status": c.Writer.Status(),
			})
		}
	}
}

// rateLimitMiddleware limits each client address to its own token bucket
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiters := newClientLimiters(s.config.Security.RateLimitPerMinute, s.config.Security.RateLimitBurstSize)

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			s.logger.LogSecurity("rate_limit_exceeded", "", c.ClientIP(), map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				utils.NewErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded"))
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("Starting server on %s", s.config.Server.GetServerAddr()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(c.Request.Context()); err != nil {
		s.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable,
			utils.NewErrorResponse(http.StatusServiceUnavailable, "Database unavailable"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}, "Service is healthy"))
}
