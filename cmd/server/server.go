package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"medialib/media-api/internal/config"
	domain "medialib/media-api/internal/domain/media"
	"medialib/media-api/internal/domain/optimizer"
	"medialib/media-api/internal/domain/upload"
	"medialib/media-api/internal/infrastructure/auth"
	"medialib/media-api/internal/infrastructure/database"
	"medialib/media-api/internal/infrastructure/folder"
	"medialib/media-api/internal/infrastructure/jobs"
	"medialib/media-api/internal/infrastructure/logger"
	"medialib/media-api/internal/infrastructure/observability"
	repo "medialib/media-api/internal/infrastructure/repository/media"
	"medialib/media-api/internal/infrastructure/storage"
	"medialib/media-api/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	scheduler  *jobs.Scheduler
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, scheduler *jobs.Scheduler, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		scheduler:  scheduler,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.scheduler.Stop()
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	mediaRepository, err := provideRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize repository")
	}

	store, err := storage.NewLocalStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	folders := folder.NewAccountant(false, log)
	mediaService := domain.NewService(cfg, mediaRepository, store, folders, log)
	optimizerService := optimizer.NewService(cfg, store, log)
	uploadService := upload.NewService(cfg, store, mediaService, optimizerService, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth")
	}

	scheduler := jobs.NewScheduler(cfg, uploadService, log)
	httpServer := httpserver.New(cfg, log, mediaService, uploadService, optimizerService, authValidator)
	app := NewApplication(httpServer, scheduler, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// provideRepository selects the catalog backend: PostgreSQL when a DSN is
// configured, otherwise the in-memory repository.
func provideRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Repository, error) {
	if !cfg.UsesDatabase() {
		log.Info().Msg("no database configured, using in-memory catalog")
		return repo.NewMemoryRepository(cfg.Deduplicate), nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.DBPostgresqlDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.AutoMigrate(ctx, db, cfg.Deduplicate, log); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return repo.NewRepository(db), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
