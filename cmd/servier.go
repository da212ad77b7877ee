package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/config"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/limitx"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	switch cfg.App.LogLevel {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Info("🚀 Starting Sentinel Auth API Server...")

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// First boot on an empty store creates the bootstrap admin key.
	container.EnsureBootstrapKey(context.Background())

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	container.StartBackgroundServices(bgCtx)

	// 4. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		IdleTimeout:           120 * time.Second,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  getCORSOrigins(),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Admin-Key, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 6. Health Check & Info Endpoints
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler)

	// 7. Register Routes
	iamc := container.IAM
	mw := iamc.Middleware

	// Platform management: admin-key guarded
	admin := app.Group("/admin/v1", mw.RequireAdminKey())
	iamc.AdminKeyHandlers.RegisterRoutes(admin)
	iamc.ProjectHandlers.RegisterRoutes(admin)
	logx.Info("✓ Admin routes registered")

	// Tenant-scoped: project API-key guarded
	api := app.Group("/api/v1", mw.RequireProjectKey())
	iamc.RoleHandlers.RegisterRoutes(api)
	iamc.UserHandlers.RegisterRoutes(api)

	// Bearer-token guarded
	authn := app.Group("/api/v1", mw.RequireAuth())
	iamc.UserHandlers.RegisterSelfRoutes(authn)

	// Abuse-prone flows get their own rate limits
	loginScoped := app.Group("/api/v1", mw.RequireProjectKey(), rateLimit(iamc.LoginLimit))
	iamc.AuthHandlers.RegisterRoutes(loginScoped, authn)

	codeScoped := app.Group("/api/v1", mw.RequireProjectKey(), rateLimit(iamc.CodeLimit))
	iamc.VerificationHandlers.RegisterRoutes(codeScoped)
	logx.Info("✓ IAM routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	// 9. Start Server with Graceful Shutdown
	startServer(app, cfg)
}

// ============================================================================
// Handler Functions
// ============================================================================

// rateLimit applies a limitx budget per client IP.
func rateLimit(l limitx.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := l.Allow(c.Context(), c.IP()); err != nil {
			return err
		}
		return c.Next()
	}
}

// healthCheckHandler returns a health check handler
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": container.Config.App.Name,
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		if err := container.DB.Ping(); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if container.Redis != nil {
			if err := container.Redis.Ping(c.Context()).Err(); err != nil {
				health["redis"] = "unhealthy"
			} else {
				health["redis"] = "healthy"
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// infoHandler returns basic API information
func infoHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":     "Sentinel Auth API",
		"version":     getEnv("APP_VERSION", "1.0.0"),
		"description": "Multi-tenant authentication and authorization backend",
		"features": []string{
			"Multi-tenant projects",
			"JWT + refresh token rotation",
			"One-time codes for verification and reset",
		},
		"endpoints": fiber.Map{
			"health": "/health",
			"admin":  "/admin/v1",
			"api":    "/api/v1",
		},
	})
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	// If it's a Fiber error
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":      fe.Message,
			"code":       "FIBER_ERROR",
			"status":     fe.Code,
			"request_id": c.Get("X-Request-ID"),
		})
	}

	// errx errors carry their transport mapping; anything else collapses to
	// an opaque internal error.
	resp := errx.AsHTTPResponse(err)
	response := fiber.Map{
		"error":      resp.Message,
		"code":       resp.ErrorCode,
		"type":       resp.Type,
		"status":     resp.StatusCode,
		"request_id": c.Get("X-Request-ID"),
	}
	if len(resp.Details) > 0 {
		response["details"] = resp.Details
	}
	var e *errx.Error
	if errors.As(err, &e) && getEnv("DEBUG", "false") == "true" && e.Err != nil {
		response["underlying_error"] = e.Err.Error()
	}
	return c.Status(resp.StatusCode).JSON(response)
}

// ============================================================================
// Utility Functions
// ============================================================================

// getCORSOrigins returns allowed CORS origins
func getCORSOrigins() string {
	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		return "*" // Default for development
	}
	return origins
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg *config.Config) {
	port := strconv.Itoa(cfg.App.Port)

	go func() {
		logx.Info("=" + repeatString("=", 60))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info("=" + repeatString("=", 60))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
