// Package api wires together all HTTP routes for the Fest backend.
//
// Route grouping philosophy:
//   - /health, /version, and /invitations/validate-token are public. Token
//     validation runs before the invitee has an account, so it cannot sit
//     behind the authentication gate; the signed token itself is the
//     credential.
//   - Everything under /auth requires a verified identity token. A verified
//     token without a local account is still let through, because the
//     account-creation endpoint is how the local account comes to exist.
//   - Organization and invitation routes add the EmailConfirmed and
//     OrganizationRequired gates on top, route by route rather than as a
//     hierarchy.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fest-dev/fest/internal/api/accounts"
	"github.com/fest-dev/fest/internal/api/invitations"
	"github.com/fest-dev/fest/internal/api/organizations"
	"github.com/fest-dev/fest/internal/auth"
	"github.com/fest-dev/fest/internal/config"
	"github.com/fest-dev/fest/internal/db/repositories"
	"github.com/fest-dev/fest/internal/mail"
	"github.com/fest-dev/fest/internal/middleware"
	"github.com/fest-dev/fest/internal/tokens"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	router := gin.New()

	// Global middleware. Order matters: recovery first, then request IDs so
	// metrics and logs can correlate, then the access gates per route group.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Identity verification against the provider's JWKS. Discovery happens at
	// startup; failing here means the configured domain is wrong and nothing
	// else can work.
	verifier, err := auth.NewVerifier(context.Background(), &cfg.Auth0)
	if err != nil {
		log.Fatalf("Failed to initialize identity verifier: %v", err)
	}

	issuer := tokens.NewIssuer(cfg.Tokens)

	mailer, err := mail.New(&cfg.Mail, cfg.Server.FrontendURL)
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}

	userRepo := repositories.NewUserRepository(db)

	accountHandlers := accounts.NewHandlers(db, issuer, mailer)
	organizationHandlers := organizations.NewHandlers(db, issuer, mailer)
	invitationHandlers := invitations.NewHandlers(db, issuer, mailer)

	authenticated := middleware.Authenticated(verifier, userRepo)

	// System endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/version", versionHandler())

	// Account endpoints
	authGroup := router.Group("/auth")
	authGroup.Use(authenticated)
	{
		authGroup.GET("/me", accountHandlers.MeHandler())
		authGroup.POST("/create-user-based-on-auth0-user", accountHandlers.CreateFromIdentityHandler())
		authGroup.PATCH("/update/:id", accountHandlers.UpdateHandler())
		authGroup.POST("/send-email-confirmation", accountHandlers.SendEmailConfirmationHandler())
		authGroup.POST("/confirm-email-code", accountHandlers.ConfirmEmailCodeHandler())
		authGroup.POST("/confirm-email-token", accountHandlers.ConfirmEmailTokenHandler())
	}

	// Organization endpoints
	orgGroup := router.Group("/organizations")
	orgGroup.Use(authenticated)
	{
		orgGroup.POST("/create", middleware.EmailConfirmed(), organizationHandlers.CreateHandler())
		orgGroup.POST("/add-member-after-invite", organizationHandlers.AddMemberAfterInviteHandler())
		orgGroup.PATCH("/update/:id", organizationHandlers.UpdateHandler())
		orgGroup.DELETE("/delete/:id", organizationHandlers.DeleteHandler())
	}

	// Invitation endpoints. Token validation is public; creating invitations
	// requires standing in an organization.
	invGroup := router.Group("/invitations")
	{
		invGroup.POST("/create",
			authenticated,
			middleware.EmailConfirmed(),
			middleware.OrganizationRequired(),
			invitationHandlers.CreateHandler(),
		)
		invGroup.POST("/validate-token", invitationHandlers.ValidateTokenHandler())
	}

	return router
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
