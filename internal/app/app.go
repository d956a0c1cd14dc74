package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vol-scanner/internal/alerting"
	"vol-scanner/internal/config"
	"vol-scanner/internal/metrics"
	"vol-scanner/internal/provider"
	"vol-scanner/internal/scan"
	"vol-scanner/internal/scheduler"
	"vol-scanner/internal/server"
	"vol-scanner/internal/service"
	"vol-scanner/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Recorder

	// store is set for the lifetime of the serve loop; one-shot commands
	// open and close their own store instead.
	store *storage.Store
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config:  cfg,
		Logger:  logger.With().Str("component", "app").Logger(),
		Metrics: metrics.New(),
	}
}

func (a *App) newProviderClient() *provider.Client {
	return provider.New(provider.Options{
		BaseURL:   a.Config.Provider.BaseURL,
		APIKey:    a.Config.Provider.APIKey,
		Timeout:   a.Config.Provider.RequestTimeout,
		UserAgent: a.Config.Provider.UserAgent,
		Retry: provider.RetryPolicy{
			MaxAttempts:      a.Config.Provider.MaxAttempts,
			BackoffBase:      a.Config.Provider.BackoffBase,
			RateLimitBackoff: a.Config.Provider.RateLimitBackoff,
		},
	}, a.Logger, a.Metrics)
}

func (a *App) newOrchestrator(client *provider.Client, store storage.RealizedVolStore, window, top int) *scan.Orchestrator {
	batcher := provider.NewQuoteBatcher(client, a.Config.Scan.ChunkSize, a.Config.Scan.MaxSymbols, a.Logger)
	vols := newRealizedVolSource(store, client, a.Config.Scan.TradingDays, a.Logger)
	return scan.New(client, client, batcher, vols, scan.Options{
		Window:        window,
		Top:           top,
		UnscoredLimit: a.Config.Scan.UnscoredLimit,
		Workers:       a.Config.Scan.Workers,
	}, a.Logger, a.Metrics)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running mode: the HTTP API plus the scheduled scan
// loop, sharing one store and one provider client.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Config.RequireAPIKey(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required for run mode")
	}
	defer closeStore()
	a.store = store
	defer func() { a.store = nil }()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	client := a.newProviderClient()
	orch := a.newOrchestrator(client, store, a.Config.Scan.Window, a.Config.Scan.Top)
	svc := service.New(a.Config, sched, orch, store, store, a.newNotifier(), a.Logger)
	srv := server.New(a, a.Config.Server, a.Logger)

	a.Logger.Info().Msg("starting scanner service")

	errCh := make(chan error, 2)
	go func() { errCh <- srv.Start(ctx) }()
	go func() { errCh <- svc.Run(ctx) }()

	err = <-errCh
	cancel()
	// Wait for the second goroutine so the store is not closed under it.
	if second := <-errCh; err == nil {
		err = second
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("scanner service stopped")
	return nil
}

// ScanOptions configure a one-shot scan.
type ScanOptions struct {
	Window int
	Top    int
	Limit  int
}

// BackfillOptions configure the backfill job.
type BackfillOptions struct {
	Limit  int
	DryRun bool
}

// ExportOptions hold parameters for exporting realized-vol history.
type ExportOptions struct {
	Ticker    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Ticker string
	Window int
	Limit  int
}
