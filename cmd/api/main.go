package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/maintenance-tickets/internal/api/http"
	"github.com/spec-kit/maintenance-tickets/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-tickets/internal/config"
	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/filestore"
	"github.com/spec-kit/maintenance-tickets/internal/notify"
	"github.com/spec-kit/maintenance-tickets/internal/observability"
	"github.com/spec-kit/maintenance-tickets/internal/persistence"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	"github.com/spec-kit/maintenance-tickets/internal/service"
	"github.com/spec-kit/maintenance-tickets/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	probes := map[string]handlers.Pinger{}

	var cols repository.Collections
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		cols = repository.NewPostgresCollections(pg.PoolHandle())
		probes["postgres"] = pg
	case config.StoreDriverMongo:
		mg, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongo", zap.Error(err))
		}
		defer mg.Close(context.Background())
		if err := mg.EnsureIndexes(ctx); err != nil {
			logger.Fatal("failed to create mongo indexes", zap.Error(err))
		}
		cols = repository.NewMongoCollections(mg.DB)
		probes["mongo"] = mg
	default:
		logger.Warn("using in-memory document store; data is lost on restart")
		cols = repository.NewMemoryCollections()
	}

	ticketRepo := repository.NewTicketRepository(cols.Tickets)
	personRepo := repository.NewPersonRepository(cols.Persons)
	locationRepo := repository.NewLocationRepository(cols.Locations)
	categoryRepo := repository.NewCategoryRepository(cols.Categories)

	if cfg.Directory.SeedFixtures {
		if err := directory.Seed(ctx, personRepo, locationRepo, logger); err != nil {
			logger.Fatal("failed to seed directory", zap.Error(err))
		}
	}

	personDir := directory.NewPersonDirectory(personRepo)
	locationDir := directory.NewLocationDirectory(locationRepo)
	if cfg.Redis.Addr != "" {
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		personDir = directory.NewCachedPersonDirectory(personDir, redis, cfg.Redis.CacheTTL(), logger)
		locationDir = directory.NewCachedLocationDirectory(locationDir, redis, cfg.Redis.CacheTTL(), logger)
		probes["redis"] = redis
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitMB * 1024 * 1024,
	})

	var store filestore.Store
	switch cfg.Storage.Driver {
	case config.StorageDriverAzure:
		azure, err := filestore.NewAzureStore(ctx, cfg.Storage.AzureConnectionString, cfg.Storage.AzureContainer, logger)
		if err != nil {
			logger.Fatal("failed to init azure storage", zap.Error(err))
		}
		store = azure
	default:
		local, err := filestore.NewLocalStore(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
		if err != nil {
			logger.Fatal("failed to init local storage", zap.Error(err))
		}
		app.Static("/files", local.Root())
		store = local
	}

	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Factory:    service.NewTicketFactory(personDir, locationDir, logger),
		Resolver:   service.NewAssignmentResolver(personDir, locationDir),
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	migrator := service.NewAttachmentMigrator(store, logger, service.MigratorConfig{
		LegacyRootMarker: cfg.Storage.LegacyRootMarker,
		Concurrency:      cfg.Migration.Concurrency,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		TicketRepo:    ticketRepo,
		Store:         store,
		Migrator:      migrator,
		Dispatcher:    dispatcher,
		Logger:        logger,
		SweepPageSize: cfg.Migration.SweepPageSize,
	})
	personService := service.NewPersonService(service.PersonDependencies{
		PersonRepo: personRepo,
		Directory:  personDir,
		Logger:     logger,
	})
	locationService := service.NewLocationService(locationRepo, personRepo, locationDir, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)

	notificationService := service.NewNotificationService(dispatcher, newNotifier(cfg.Notification, logger), logger, cfg.Notification.Timeout())
	notificationWorker := worker.NewNotificationWorker(notificationService, logger)
	notificationWorker.Start()

	var scheduler *worker.MigrationScheduler
	if cfg.Migration.Enabled {
		scheduler, err = worker.NewMigrationScheduler(attachmentService, cfg.Migration.Schedule, metrics, logger)
		if err != nil {
			logger.Fatal("invalid migration schedule", zap.Error(err))
		}
		if err := scheduler.Start(); err != nil {
			logger.Fatal("failed to start migration scheduler", zap.Error(err))
		}
	}

	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes, metrics),
		Tickets:     handlers.NewTicketsHandler(ticketService),
		Attachments: handlers.NewAttachmentsHandler(attachmentService),
		Persons:     handlers.NewPersonsHandler(personService),
		Catalog:     handlers.NewCatalogHandler(locationService, categoryService),
		Admin:       handlers.NewAdminHandler(ticketService, attachmentService, metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("migration scheduler stop", zap.Error(err))
		}
	}
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker stop", zap.Error(err))
	}
}

// newNotifier prefers the webhook, then SMTP, and falls back to logging.
func newNotifier(cfg config.NotificationConfig, logger *zap.Logger) notify.Notifier {
	switch {
	case cfg.WebhookURL != "":
		return notify.NewWebhookNotifier(cfg.WebhookURL, cfg.Timeout(), logger)
	case cfg.SMTPHost != "":
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		})
	default:
		return notify.NewLogNotifier(logger)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
