package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/clientpulse/clientpulse/internal/adapter/ai"
	"github.com/clientpulse/clientpulse/internal/adapter/google"
	"github.com/clientpulse/clientpulse/internal/adapter/persistence"
	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/logger"
	"github.com/clientpulse/clientpulse/internal/ports"
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
		ServiceName: "clientpulse-sweeper",
	})
	structuredLogger.Info(ctx, "Sweeper starting", map[string]interface{}{
		"sweep_schedule":   cfg.Sweep.Schedule,
		"agenda_schedule":  cfg.Sweep.AgendaSchedule,
		"outlook_schedule": cfg.Sweep.OutlookSchedule,
	})

	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Repositories
	clientRepo := persistence.NewPostgresClientRepository(db)
	meetingRepo := persistence.NewPostgresMeetingRepository(db)
	unmatchedRepo := persistence.NewPostgresUnmatchedRepository(db)
	auditRepo := persistence.NewPostgresAuditRepository(db, structuredLogger)
	dedupRepo := persistence.NewPostgresDedupRepository(db)

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
	calendarService, err := google.NewCalendarAdapter(ctx, gcfg, "")
	if err != nil {
		log.Fatalf("Failed to initialize calendar service: %v", err)
	}

	var completion ports.CompletionService
	if cfg.AI.MockMode {
		completion = ai.NewMockAdapter(100 * time.Millisecond)
		structuredLogger.Info(ctx, "Using mock completion service", nil)
	} else {
		completion = ai.NewOpenAIAdapter(ai.Config{
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
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
	aggregator := usecase.NewContextAggregator(
		mailService,
		docsService,
		tasksService,
		auditRepo,
		structuredLogger,
		cfg.Agenda,
	)
	agenda := usecase.NewAgendaUseCase(
		clientRepo,
		dedupRepo,
		unmatchedRepo,
		auditRepo,
		calendarService,
		aggregator,
		completion,
		mailService,
		docsService,
		structuredLogger,
		cfg.Agenda,
		cfg.AI.MaxOutputTokens,
	)
	outlook := usecase.NewOutlookUseCase(
		clientRepo,
		auditRepo,
		calendarService,
		tasksService,
		mailService,
		structuredLogger,
		7*24*time.Hour,
	)

	location, err := time.LoadLocation(cfg.Sweep.Timezone)
	if err != nil {
		structuredLogger.Warn(ctx, "Unknown timezone, using local", map[string]interface{}{
			"timezone": cfg.Sweep.Timezone,
		})
		location = time.Local
	}

	gate := businessHoursGate(cfg.Sweep, location)

	scheduler := cron.New(cron.WithLocation(location))

	mustSchedule(scheduler, cfg.Sweep.Schedule, func() {
		if err := lifecycle.SweepSentDrafts(ctx); err != nil {
			structuredLogger.Error(ctx, "Sent-draft sweep failed", err, nil)
		}
	})
	mustSchedule(scheduler, cfg.Sweep.AgendaSchedule, func() {
		if !gate(time.Now().In(location)) {
			return
		}
		if err := agenda.GenerateUpcoming(ctx); err != nil {
			structuredLogger.Error(ctx, "Agenda generation failed", err, nil)
		}
	})
	mustSchedule(scheduler, cfg.Sweep.OutlookSchedule, func() {
		if err := outlook.ComposeAndSend(ctx); err != nil {
			structuredLogger.Error(ctx, "Outlook report failed", err, nil)
		}
	})

	scheduler.Start()
	structuredLogger.Info(ctx, "Sweeper scheduled", nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Sweeper shutting down...", nil)
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
	}
	structuredLogger.Info(ctx, "Sweeper exited", nil)
}

// businessHoursGate keeps the agenda trigger quiet outside the configured
// window. The sent-draft sweep and the weekly outlook report run on their own
// schedules and are not gated.
func businessHoursGate(cfg config.SweepConfig, _ *time.Location) func(time.Time) bool {
	return func(now time.Time) bool {
		h := now.Hour()
		return h >= cfg.BusinessHoursStart && h < cfg.BusinessHoursEnd
	}
}

func mustSchedule(c *cron.Cron, spec string, fn func()) {
	if _, err := c.AddFunc(spec, fn); err != nil {
		log.Fatalf("Failed to schedule %q: %v", spec, err)
	}
}
