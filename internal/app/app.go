package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrSnakeDoc/dispenser/internal/clipboard"
	"github.com/MrSnakeDoc/dispenser/internal/config"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver"
	"github.com/MrSnakeDoc/dispenser/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dispenser/internal/index"
	"github.com/MrSnakeDoc/dispenser/internal/logger"
	"github.com/MrSnakeDoc/dispenser/internal/metrics"
	"github.com/MrSnakeDoc/dispenser/internal/redis"
	"github.com/MrSnakeDoc/dispenser/internal/scheduler"
	"github.com/MrSnakeDoc/dispenser/internal/service"
	"github.com/MrSnakeDoc/dispenser/internal/store"
	redisstore "github.com/MrSnakeDoc/dispenser/internal/store/redis"
	"github.com/MrSnakeDoc/dispenser/internal/store/sqlite"
	"github.com/MrSnakeDoc/dispenser/internal/utils"
	"github.com/MrSnakeDoc/dispenser/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	backend  store.Backend
	syncer   *scheduler.IndexSyncer
	sweeper  *scheduler.CooldownSweeper
	importer *scheduler.SeedImporter // nil when no seed file is configured
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the store early - fail fast if unavailable
	backend, err := openBackend(cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := service.New(service.Options{
		Lists:               backend,
		Settings:            backend,
		Cooldowns:           backend,
		Clipboard:           newClipboard(cfg, loggerClient),
		Metrics:             metrics.MustNew(registry),
		Logger:              loggerClient.With(logger.String("component", "service")),
		DefaultDelaySeconds: cfg.DelaySeconds,
	})

	listIdx := index.NewListIndex()
	syncer := scheduler.NewIndexSyncer(svc, listIdx, loggerClient)
	sweeper := scheduler.NewCooldownSweeper(svc, loggerClient, cfg.SweepInterval)

	var (
		importer      *scheduler.SeedImporter
		reloadTrigger chan struct{}
	)
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured",
			logger.String("file", cfg.SeedFile))
		reloadTrigger = make(chan struct{}, 1)
		importer = scheduler.NewSeedImporter(cfg.SeedFile, svc, loggerClient, reloadTrigger)
	}

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		Location:      time.Local,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		TickInterval:  cfg.TickInterval,
		Service:       svc,
		Backend:       backend,
		StoreKind:     cfg.Store,
		Index:         listIdx,
		Gatherer:      registry,
		SeedFile:      cfg.SeedFile,
		ReloadTrigger: reloadTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg, loggerClient, d),
		backend:  backend,
		syncer:   syncer,
		sweeper:  sweeper,
		importer: importer,
	}, nil
}

func openBackend(cfg *config.Config, log logger.Logger) (store.Backend, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client, err := redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("redis store initialized")
		return redisstore.NewStore(client, log.With(logger.String("component", "store"))), nil
	default:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("sqlite store initialized", logger.String("path", cfg.SQLitePath))
		return s, nil
	}
}

// newClipboard falls back to discarding prompts when no system clipboard exists.
func newClipboard(cfg *config.Config, log logger.Logger) clipboard.Sink {
	if !cfg.Clipboard {
		return clipboard.Nop{}
	}
	sys, err := clipboard.NewSystem()
	if err != nil {
		log.Warn("system clipboard unavailable, prompts will not be copied",
			logger.Error(err))
		return clipboard.Nop{}
	}
	return sys
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed first so the index starts with imported lists.
	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed importer: %w", err)
		}
		a.logger.Info("seed importer started")
	}

	if err := a.syncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start index syncer: %w", err)
	}

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cooldown sweeper: %w", err)
	}
	a.logger.Info("cooldown sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.backend, a.logger, a.cfg.Store)
	_ = a.logger.Sync()

	a.logger.Info("✅ dispenser stopped cleanly")
	return nil
}
