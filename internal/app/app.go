package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"coindeck/internal/alerting"
	"coindeck/internal/config"
	"coindeck/internal/market"
	"coindeck/internal/scheduler"
	"coindeck/internal/server"
	"coindeck/internal/service"
	"coindeck/internal/storage"
	"coindeck/internal/wallet"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newMarketClient() *market.Client {
	return market.NewClient(market.Options{
		BaseURL:   a.Config.Market.BaseURL,
		Order:     a.Config.Market.Order,
		PerPage:   a.Config.Market.PerPage,
		Timeout:   a.Config.Market.RequestTimeout,
		UserAgent: a.Config.Market.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newWalletReader() server.BalanceReader {
	if a.Config.Wallet.RPCURL == "" {
		return nil
	}
	return wallet.NewReader(wallet.Options{
		RPCURL:  a.Config.Wallet.RPCURL,
		Timeout: a.Config.Wallet.RequestTimeout,
	}, a.Logger)
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
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run starts the HTTP API and the quote polling loop and serves until
// interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to run the dashboard")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Poller.Interval,
		AlignToStart: a.Config.Poller.AlignToBucket,
		StartupDelay: a.Config.Poller.StartupDelay,
	}, a.Logger)

	fetcher := a.newMarketClient()
	notifier := a.newNotifier()

	svc := service.New(a.Config, sched, fetcher, store, store, store, store, notifier, a.Logger)

	srv := server.New(a.Config.Server, store, store, store, store, svc, a.newWalletReader(), a.Logger)

	a.Logger.Info().Msg("starting dashboard")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return svc.Run(groupCtx)
	})
	group.Go(func() error {
		return srv.Run(groupCtx)
	})

	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("dashboard terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard stopped")
	return nil
}

// ExportOptions hold parameters for exporting portfolio history.
type ExportOptions struct {
	UserEmail string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// MarketsOptions configure the one-shot market snapshot.
type MarketsOptions struct {
	Currency string
}
