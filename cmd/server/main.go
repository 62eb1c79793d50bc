package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/clientpulse/clientpulse/internal/adapter/google"
	"github.com/clientpulse/clientpulse/internal/adapter/http/handler"
	"github.com/clientpulse/clientpulse/internal/adapter/http/middleware"
	"github.com/clientpulse/clientpulse/internal/adapter/http/router"
	"github.com/clientpulse/clientpulse/internal/adapter/persistence"
	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/service/jwt"
	"github.com/clientpulse/clientpulse/internal/service/password"
	"github.com/clientpulse/clientpulse/internal/service/ratelimit"
	"github.com/clientpulse/clientpulse/internal/usecase"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	structuredLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "clientpulse-server",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Server.Environment,
	})

	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		structuredLogger.Error(ctx, "Failed to ping database", err, nil)
		log.Fatalf("Failed to ping database: %v", err)
	}
	structuredLogger.Info(ctx, "Database connection established", map[string]interface{}{
		"host": cfg.Database.Host,
		"name": cfg.Database.DBName,
	})

	rateLimitService, err := ratelimit.NewRateLimitService(ratelimit.Config{
		Enabled:  cfg.Security.RateLimitEnabled,
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Requests: cfg.Security.RateLimitRequests,
		Window:   cfg.Security.RateLimitWindow,
	}, structuredLogger)
	if err != nil {
		log.Fatalf("Failed to initialize rate limit service: %v", err)
	}

	tokenService, err := jwt.NewJWTService(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(0)

	// Repositories
	clientRepo := persistence.NewPostgresClientRepository(db)
	meetingRepo := persistence.NewPostgresMeetingRepository(db)
	unmatchedRepo := persistence.NewPostgresUnmatchedRepository(db)
	auditRepo := persistence.NewPostgresAuditRepository(db, structuredLogger)
	operatorRepo := persistence.NewPostgresOperatorRepository(db)

	// Google Workspace collaborators
	gcfg := google.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		ImpersonateUser: cfg.Google.ImpersonateUser,
	}
	mailService, err := google.NewGmailAdapter(ctx, gcfg, cfg.Mail.NotifyAddress)
	if err != nil {
		log.Fatalf("Failed to initialize mail service: %v", err)
	}
	docsService, err := google.NewDocsAdapter(ctx, gcfg)
	if err != nil {
		log.Fatalf("Failed to initialize document service: %v", err)
	}
	tasksService, err := google.NewTasksAdapter(ctx, gcfg)
	if err != nil {
		log.Fatalf("Failed to initialize task service: %v", err)
	}

	// Use cases
	lifecycle := usecase.NewLifecycleUseCase(
		clientRepo,
		meetingRepo,
		unmatchedRepo,
		auditRepo,
		mailService,
		docsService,
		tasksService,
		structuredLogger,
		cfg.Mail,
		cfg.Sweep.Window,
	)
	registry := usecase.NewRegistryUseCase(clientRepo, unmatchedRepo, auditRepo, structuredLogger)
	auth := usecase.NewAuthUseCase(operatorRepo, passwordService, tokenService, structuredLogger)

	// HTTP surface
	h := router.New(router.Deps{
		Webhook:   handler.NewWebhookHandler(lifecycle, auditRepo, cfg.Webhook, structuredLogger),
		Auth:      handler.NewAuthHandler(auth),
		Admin:     handler.NewAdminHandler(registry),
		AuthMW:    middleware.NewAuthMiddleware(tokenService),
		RateLimit: middleware.NewRateLimitMiddleware(rateLimitService, structuredLogger),
		Log:       structuredLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Error(ctx, "Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
