package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/coupon-giveaway/internal/auth"
	"github.com/fairyhunter13/coupon-giveaway/internal/config"
	"github.com/fairyhunter13/coupon-giveaway/internal/handler"
	"github.com/fairyhunter13/coupon-giveaway/internal/middleware"
	"github.com/fairyhunter13/coupon-giveaway/internal/repository"
	"github.com/fairyhunter13/coupon-giveaway/internal/service"
	appvalidator "github.com/fairyhunter13/coupon-giveaway/internal/validator"
	"github.com/fairyhunter13/coupon-giveaway/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Giveaway",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(cors.New())

	// Initialize validator
	validate := appvalidator.New()

	// Token manager for admin bearer credentials
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)
	requireAdmin := middleware.RequireAdmin(tokens)

	// Initialize components (layered architecture)
	couponRepo := repository.NewCouponRepository(pool)
	claimRepo := repository.NewClaimRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	couponService := service.NewCouponService(pool, couponRepo, claimRepo, cfg.Claim.MaxClaimsPerCoupon)
	adminService := service.NewAdminService(adminRepo, tokens)
	couponHandler := handler.NewCouponHandler(couponService, validate)
	claimHandler := handler.NewClaimHandler(couponService, validate)
	adminHandler := handler.NewAdminHandler(adminService, validate)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	// Fixed-window per-IP limiter guarding the public claim endpoint
	claimLimiter := limiter.New(limiter.Config{
		Max:        cfg.Claim.RateLimit,
		Expiration: time.Duration(cfg.Claim.RateWindowHours) * time.Hour,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many claim attempts from this IP, please try again later",
			})
		},
	})

	// Admin auth routes
	app.Post("/api/admin/register", adminHandler.Register)
	app.Post("/api/admin/login", adminHandler.Login)

	// Public claim route
	app.Post("/api/coupons/claim", claimLimiter, claimHandler.ClaimCoupon)

	// Admin coupon routes. /history is registered before /:id so it doesn't
	// match as an id parameter.
	app.Get("/api/coupons/history", requireAdmin, couponHandler.GetClaimHistory)
	app.Get("/api/coupons", requireAdmin, couponHandler.ListCoupons)
	app.Post("/api/coupons", requireAdmin, couponHandler.CreateCoupon)
	app.Patch("/api/coupons/:id", requireAdmin, couponHandler.UpdateCoupon)
	app.Delete("/api/coupons/:id", requireAdmin, couponHandler.DeleteCoupon)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
