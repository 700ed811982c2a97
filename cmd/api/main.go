package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/session"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(*cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.OpenPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var repos repository.Set
	dependencies := map[string]handlers.Pinger{}
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := pg.Migrate(ctx); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewPostgresSet(pg.Pool())
		dependencies["postgres"] = pg
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
		repos = memory.NewSet()
	}

	redis := persistence.OpenRedis(ctx, cfg.Redis, logger)
	defer redis.Close() //nolint:errcheck
	dependencies["redis"] = redis

	dispatcher := events.NewInMemoryDispatcher()
	var forwarder *events.KafkaForwarder
	if cfg.Kafka.Enabled() {
		writer, err := events.NewKafkaWriter(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal("failed to configure kafka", zap.Error(err))
		}
		forwarder = events.NewKafkaForwarder(writer, cfg.Kafka.Topic)
		defer forwarder.Close() //nolint:errcheck
	}
	outbound := worker.NewEventQueue(logger, worker.DefaultQueueSize)
	notificationService := service.NewNotificationService(outbound, logger, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, outbound, notificationService, forwarder, logger)

	sessions := session.NewRedisStore(redis.Client, cfg.Session.KeyPrefix)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:      repos.Users,
		AuthTokenRepo: repos.AuthTokens,
		Sessions:      sessions,
		TokenManager:  tokenManager,
		Logger:        logger,
	})
	options, err := service.NewOptionsService(cfg.Tickets.OptionsFile)
	if err != nil {
		logger.Fatal("failed to load ticket options", zap.Error(err))
	}
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		UserRepo:    repos.Users,
		HistoryRepo: repos.History,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.Tickets,
		NoteRepo:       repos.Notes,
		AttachmentRepo: repos.Attachments,
		UserRepo:       repos.Users,
		HistoryRepo:    repos.History,
		Assignments:    assignments,
		Options:        options,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	userService := service.NewUserService(*cfg, repos.Users)
	if created, err := userService.EnsureSuperadmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("failed to bootstrap superadmin", zap.Error(err))
	} else if created {
		logger.Info("bootstrap superadmin created", zap.String("email", cfg.Auth.BootstrapAdminEmail))
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewServer(cfg.App, logger, metrics, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Auth:           handlers.NewAuthHandler(authService, !cfg.App.IsProduction()),
		Account:        handlers.NewAccountHandler(userService, service.NewSettingsService(repos.Settings)),
		Tickets:        handlers.NewTicketsHandler(ticketService, options),
		Admin:          handlers.NewAdminHandler(userService, assignments, service.NewReportService(repos.Tickets)),
		AuthMiddleware: auth.NewAuthMiddleware(tokenManager, sessions, repos.Users),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelDrain()
	if err := outbound.Stop(drainCtx); err != nil {
		logger.Warn("outbound events not drained", zap.Int("pending", outbound.Pending()), zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
