package app

import (
	"errors"
	"fmt"

	"github.com/dfryer1193/alttext/internal/auth"
	"github.com/dfryer1193/alttext/internal/cache"
	"github.com/dfryer1193/alttext/internal/config"
	"github.com/dfryer1193/alttext/internal/metrics"
	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/persistence"
	"github.com/dfryer1193/alttext/shared/db"
	"github.com/dfryer1193/alttext/shared/db/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// App holds the wired services shared by the server and the CLI
type App struct {
	Config     *config.Config
	Database   *sqlite.SQLiteDB
	Repo       *persistence.SQLiteImageRepository
	Authorizer auth.RoleAuthorizer
	Cache      application.StatsCache
	Metrics    *metrics.Metrics
	Sync       *application.SyncService
	Hooks      *application.Hooks
	Library    *application.LibraryService
}

// New connects the store and builds the service graph
func New(cfg *config.Config) (*App, error) {
	database := sqlite.NewSQLiteDB(cfg.SQLite)
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	statsCache, err := newStatsCache(cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repo := persistence.NewImageRepository(database.DB())
	authz := auth.NewRoleAuthorizer()
	syncService := application.NewSyncService(repo, authz,
		application.WithOutcomeRecorder(m),
		application.WithStatsCache(statsCache),
		application.WithBatchSize(cfg.Backfill.BatchSize),
	)
	hooks := application.NewHooks(syncService)
	library := application.NewLibraryService(repo, db.NewTransactor(database.DB()), hooks, statsCache)

	return &App{
		Config:     cfg,
		Database:   database,
		Repo:       repo,
		Authorizer: authz,
		Cache:      statsCache,
		Metrics:    m,
		Sync:       syncService,
		Hooks:      hooks,
		Library:    library,
	}, nil
}

func newStatsCache(cfg *config.Config) (application.StatsCache, error) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryCache(cfg.Redis.StatsTTL), nil
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StatsTTL)
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis stats cache")
	return redisCache, nil
}

func (a *App) Close() error {
	var errs []error
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, a.Database.Close())
	return errors.Join(errs...)
}
