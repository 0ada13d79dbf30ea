package cli

import (
	"context"
	"fmt"

	"bollette/internal/backend"
	"bollette/internal/cache"
	"bollette/internal/config"
	"bollette/internal/core"
	applog "bollette/internal/log"
	"bollette/internal/services"
)

// App is the engine wired against the configured backend.
type App struct {
	Config     *config.Config
	Logger     *applog.Logger
	Backend    *backend.BackendResult
	Reconciler *services.Reconciler
	Notifier   *services.Notifier
	Budgets    *services.BudgetService
	Caches     *cache.Manager
}

// NewApp builds the backend and the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	spend := cache.NewLRUCache[core.Money](cfg.SpendCacheSize, cfg.SpendCacheTTL)
	caches := cache.NewManager()
	caches.Register(spend)

	reconciler := services.NewReconciler(res.Store, res.Store, services.ReconcilerConfig{
		HorizonSize: cfg.HorizonSize,
		Concurrency: cfg.ReconcileConcurrency,
	})
	return &App{
		Config:     cfg,
		Logger:     logger,
		Backend:    res,
		Reconciler: reconciler,
		Notifier:   services.NewNotifier(res.Store, res.Events, res.Store, res.Publisher),
		Budgets:    services.NewBudgetService(res.Store, res.Store, spend),
		Caches:     caches,
	}, nil
}

// Store returns the storage backend.
func (a *App) Store() backend.Store {
	return a.Backend.Store
}

// Close stops the cache sweeper and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	if a.Backend.Cleanup != nil {
		return a.Backend.Cleanup()
	}
	return nil
}

// ApplySeed loads the configured seed file into the store. It is a no-op
// when no seed file is set.
func (a *App) ApplySeed(ctx context.Context) error {
	if a.Config.SeedFile == "" {
		return nil
	}
	seed, err := backend.LoadSeed(a.Config.SeedFile)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, a.Store())
	if err != nil {
		return fmt.Errorf("apply seed %s: %w", a.Config.SeedFile, err)
	}
	if res.Skipped {
		a.Logger.InfoContext(ctx, "Seed file skipped, store already holds data", "path", a.Config.SeedFile)
		return nil
	}
	a.Logger.InfoContext(ctx, "Seed file applied",
		"path", a.Config.SeedFile,
		"obligations", res.Obligations,
		"budgets", res.Budgets,
		"expenses", res.Expenses)
	return nil
}

// NewScheduler returns a scheduler running on the configured interval that
// also sweeps the engine caches.
func (a *App) NewScheduler() *services.Scheduler {
	cfg := services.DefaultSchedulerConfig()
	cfg.Interval = a.Config.ReconcileInterval
	return services.NewScheduler(a.Reconciler, a.Notifier, cfg).
		OnCleanup(func() {
			if n := a.Caches.Sweep(); n > 0 {
				a.Logger.WithComponent(applog.ComponentCache).Debug("Expired cache entries removed", "count", n)
			}
		})
}
