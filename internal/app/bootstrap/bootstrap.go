package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	powerengine "powertrack/contexts/progression/power-engine"
	"powertrack/contexts/progression/power-engine/adapters/catalogfile"
	"powertrack/contexts/progression/power-engine/adapters/memory"
	"powertrack/contexts/progression/power-engine/adapters/policyfile"
	postgresadapter "powertrack/contexts/progression/power-engine/adapters/postgres"
	"powertrack/contexts/progression/power-engine/adapters/redislock"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/contexts/progression/power-engine/ports"
	"powertrack/internal/platform/config"
	"powertrack/internal/platform/db"
	"powertrack/internal/platform/httpserver"
	"powertrack/internal/platform/messaging"

	"github.com/redis/go-redis/v9"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server    *httpserver.Server
	resources *Resources
	logger    *slog.Logger
}

type WorkerApp struct {
	module       powerengine.Module
	resources    *Resources
	pollInterval time.Duration
	lastCloseout string
	logger       *slog.Logger
}

// Resources are the process-wide handles behind a power-engine module.
// Postgres and Redis are nil when the process runs in memory.
type Resources struct {
	Config   config.Config
	Module   powerengine.Module
	Postgres *db.Postgres
	Redis    redis.UniversalClient
	Bus      *messaging.Bus
	Logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	resources, err := Build("api")
	if err != nil {
		return nil, err
	}
	server := httpserver.New(resources.Module, resources.Logger, normalizeAddr(resources.Config.HTTPPort))
	return &APIApp{
		server:    server,
		resources: resources,
		logger:    resources.Logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	resources, err := Build("worker")
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		module:       resources.Module,
		resources:    resources,
		pollInterval: resources.Config.WorkerPollInterval,
		logger:       resources.Logger,
	}, nil
}

// Build loads config and wires the power-engine module for one process.
func Build(process string) (*Resources, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", process)

	loaded, err := policyfile.Load(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	resources := &Resources{Config: cfg, Logger: logger}
	deps := powerengine.Dependencies{
		Policy:          loaded.Policy,
		Ladder:          loaded.Ladder,
		HaltOnViolation: cfg.HaltOnViolation,
		OutboxBatchSize: cfg.OutboxBatchSize,
		Logger:          logger,
	}

	var (
		store         *memory.Store
		catalogWriter catalogfile.Writer
	)
	if cfg.PostgresDSN != "" {
		pg, err := db.Connect(cfg.PostgresDSN, db.DefaultOptions())
		if err != nil {
			return nil, err
		}
		resources.Postgres = pg
		if cfg.AutoMigrate {
			if err := postgresadapter.Migrate(pg.DB); err != nil {
				_ = resources.Close()
				return nil, err
			}
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		deps.Catalog = repo
		catalogWriter = repo
		deps.Ledger = repo
		deps.Outbox = repo
		deps.Clock = postgresadapter.SystemClock{}
		deps.IDGenerator = postgresadapter.UUIDGenerator{}
	} else {
		logger.Warn("postgres dsn not set, ledger is kept in memory",
			"event", "bootstrap_memory_ledger",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store = memory.NewStore()
		deps.Catalog = store
		catalogWriter = store
		deps.Ledger = store
		deps.Outbox = store
		deps.Clock = store
		deps.IDGenerator = store
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			_ = resources.Close()
			return nil, err
		}
		resources.Redis = client
		deps.Locker = redislock.New(client, logger)
	} else {
		deps.Locker = memory.NewUserLocker()
	}

	if cfg.EventBus == config.EventBusRedis {
		deps.Publisher = messaging.NewRedisStreams(resources.Redis, messaging.RedisStreamsOptions{
			Consumer: cfg.ServiceName + "-" + process,
		}, logger)
	} else {
		resources.Bus = messaging.NewBus(logger)
		deps.Publisher = resources.Bus
	}

	if cfg.CatalogFile != "" {
		if err := seedCatalog(context.Background(), catalogWriter, cfg.CatalogFile, logger); err != nil {
			_ = resources.Close()
			return nil, err
		}
	}

	module := powerengine.NewModule(deps)
	module.Store = store
	resources.Module = module
	return resources, nil
}

// seedCatalog upserts the catalog file into the configured store. It is the
// only way an in-memory process learns habits and tasks.
func seedCatalog(ctx context.Context, writer catalogfile.Writer, path string, logger *slog.Logger) error {
	catalog, err := catalogfile.Load(path)
	if err != nil {
		logger.Error("catalog file could not be loaded",
			"event", "bootstrap_catalog_load_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"path", path,
			"error", err.Error(),
		)
		return fmt.Errorf("catalog file %s: %w", path, err)
	}
	if err := catalogfile.Import(ctx, writer, catalog); err != nil {
		return fmt.Errorf("catalog file %s: %w", path, err)
	}
	logger.Info("catalog file imported",
		"event", "bootstrap_catalog_imported",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"path", path,
		"categories", len(catalog.Categories),
		"habits", len(catalog.Habits),
		"tasks", len(catalog.Tasks),
	)
	return nil
}

// Subscriber returns the event source matching the configured bus.
func (r *Resources) Subscriber() ports.EventSubscriber {
	if r.Bus != nil {
		return r.Bus
	}
	return messaging.NewRedisStreams(r.Redis, messaging.RedisStreamsOptions{
		Consumer: r.Config.ServiceName + "-listener",
	}, r.Logger)
}

func (r *Resources) Close() error {
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.Postgres != nil {
		errs = append(errs, r.Postgres.Close())
	}
	return errors.Join(errs...)
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	return a.resources.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.resources.Subscriber().Subscribe(
		ctx,
		commands.EventTransformationUnlocked,
		w.resources.Config.ServiceName+"-transformation-log",
		w.logTransformation,
	); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick relays pending outbox rows and, once per calendar day, closes out
// the previous day for every user.
func (w *WorkerApp) tick(ctx context.Context) error {
	if _, err := w.module.Relay.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		w.logger.Warn("outbox relay pass failed",
			"event", "bootstrap_outbox_relay_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}

	today := entities.DayKey(time.Now())
	if today == w.lastCloseout {
		return nil
	}
	if _, err := w.module.Closeout.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	w.lastCloseout = today
	return nil
}

func (w *WorkerApp) logTransformation(_ context.Context, event ports.EventEnvelope) error {
	var payload struct {
		UserID         string `json:"user_id"`
		NewTier        string `json:"new_tier"`
		NewTierName    string `json:"new_tier_name"`
		NewTotalPoints int64  `json:"new_total_points"`
	}
	if err := event.Decode(&payload); err != nil {
		return err
	}
	w.logger.Info("user reached a new transformation",
		"event", "power_transformation_observed",
		"module", "internal/app/bootstrap",
		"layer", "worker",
		"event_id", event.EventID,
		"user_id", payload.UserID,
		"tier", payload.NewTier,
		"tier_name", payload.NewTierName,
		"total_power_points", payload.NewTotalPoints,
	)
	return nil
}

func (w *WorkerApp) Close() error {
	return w.resources.Close()
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
