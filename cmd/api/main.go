package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/handlers"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/middleware"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
	"github.com/craftkart/identity/internal/services"
	"github.com/craftkart/identity/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// @title           Craftkart Identity API
// @version         1.0
// @description     Identity verification and session service for the Craftkart storefront. Issues one-time codes over email and SMS, confirms them, and manages account registration and sessions for shoppers, admins and super admins.

// @contact.name   Platform Team
// @contact.email  platform@craftkart.in

// @host      localhost:8080
// @BasePath  /

// @tag.name auth
// @tag.description Verification code and session operations

// @tag.name health
// @tag.description Health check operations

func main() {
	// Initialize logger first
	if err := logging.InitLogger(); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logging.Logger.Fatal("failed to load config", zap.Error(err))
	}

	// Initialize observability
	observability.InitTracer()
	defer observability.ShutdownTracer()

	// Initialize database connections
	config.InitMongoDB()
	config.InitRedis()

	// Initialize services
	services.InitCodeService()
	services.InitUserService()
	services.InitSendCodeLimiter(config.AppConfig.SendCodeGlobalPerMinute)
	utils.InitAuditWorker(2, 256)
	defer utils.ShutdownAuditWorker()

	// Expose pool and limiter state on /metrics
	observability.RegisterRedisPoolStats(func() (uint32, uint32) {
		stats := config.Redis.PoolStats()
		return stats.TotalConns, stats.IdleConns
	})
	observability.RegisterSendCodeTokens(services.SendLimiter.GetGlobalStatus)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with middleware
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RequestTracker(),
		cors.Default(),
	)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoint
	router.GET("/v1/health", handlers.HealthCheck)

	// One endpoint set per actor, differing only in prefix and the role
	// assigned on registration
	for _, actor := range []models.ActorKind{models.ActorUser, models.ActorAdmin, models.ActorSuperAdmin} {
		group := router.Group(actor.Prefix(), handlers.ActorContext(actor))
		{
			group.POST("/auth/:channel/send-code", handlers.SendCode)
			group.POST("/auth/:channel/verify-code", handlers.VerifyCode)
			group.POST("/auth/:channel/register", handlers.Register)
			group.POST("/login", handlers.PasswordLogin)
			if actor == models.ActorUser {
				group.GET("/auth/me", middleware.SessionAuth(), handlers.Me)
			} else {
				// back-office endpoint sets only accept back-office sessions
				group.GET("/auth/me", middleware.SessionAuth(), middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin), handlers.Me)
			}
			group.POST("/auth/logout", handlers.Logout)
		}
	}

	// Create server with timeouts
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logging.Logger.Info("starting server",
			zap.Int("port", config.AppConfig.Port),
			zap.String("environment", config.AppConfig.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logging.Logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logging.Logger.Info("server exited gracefully")
}
