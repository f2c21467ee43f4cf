// Package app wires the service graph shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/web3-frozen/ovn-pools/internal/config"
	"github.com/web3-frozen/ovn-pools/internal/dedup"
	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/exchanger/adapters"
	"github.com/web3-frozen/ovn-pools/internal/onchain"
	"github.com/web3-frozen/ovn-pools/internal/price"
	"github.com/web3-frozen/ovn-pools/internal/scrape"
	"github.com/web3-frozen/ovn-pools/internal/skim"
	"github.com/web3-frozen/ovn-pools/internal/store"
	"github.com/web3-frozen/ovn-pools/internal/telegram"
)

// App holds the long-lived dependencies.
type App struct {
	Store    *store.Store
	Dedup    *dedup.Deduplicator // nil without notifications
	Bot      *telegram.Bot       // nil without notifications
	Chains   *onchain.Clients
	Registry *exchanger.Registry
	Syncer   *exchanger.Syncer
	Skim     *skim.Checker
}

// Options select the optional parts of the graph.
type Options struct {
	// Notify connects Redis and Telegram for alerts.
	Notify bool
	// RedisAttempts is how many times to try Redis before giving up.
	RedisAttempts int
}

// New connects to Postgres (migrating it), optionally Redis and Telegram,
// and builds the adapter registry, Syncer and skim Checker.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database connected and migrated")

	a := &App{Store: db, Chains: onchain.NewClients(cfg.RPC)}

	if opts.Notify {
		if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
			a.Close()
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
		}
		a.Bot = telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, logger)

		if a.Dedup, err = connectRedis(ctx, cfg, logger, opts.RedisAttempts); err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("redis connected for alert dedup")
	}

	book, err := adapters.LoadAddressBook(cfg.AddressBook)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Registry = exchanger.NewRegistry(logger)
	adapters.Register(a.Registry, adapters.Deps{
		HTTP:        &http.Client{Timeout: cfg.HTTPTimeout},
		Fetcher:     scrape.NewChrome(cfg.ChromePath, cfg.BrowserSessions),
		Chains:      a.Chains,
		Prices:      price.NewOracle(cfg.CoinGeckoAPIKey),
		Book:        book,
		PageTimeout: cfg.PageTimeout,
		Logger:      logger,
	})

	syncOpts := []exchanger.Option{
		exchanger.WithWorkers(cfg.AdapterWorkers),
		exchanger.WithTimeout(cfg.HTTPTimeout + cfg.PageTimeout),
		exchanger.WithStaleAfter(cfg.StaleAfter),
	}
	if a.Bot != nil {
		syncOpts = append(syncOpts, exchanger.WithNotifier(a.Bot), exchanger.WithDedup(a.Dedup))
	}
	a.Syncer = exchanger.NewSyncer(a.Registry, db, logger, syncOpts...)

	listeners := skim.NewPayoutListeners(a.Chains, cfg.PayoutListeners)
	if a.Bot != nil {
		a.Skim = skim.NewChecker(db, listeners, a.Bot, a.Dedup, logger)
	} else {
		a.Skim = skim.NewChecker(db, listeners, nil, nil, logger)
	}

	if a.Bot != nil {
		a.Bot.SetSyncer(a.Syncer)
	}
	return a, nil
}

// connectRedis retries while the secret or the Redis pod comes up.
func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger, attempts int) (*dedup.Deduplicator, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var dd *dedup.Deduplicator
		if dd, err = dedup.New(cfg.RedisURL, cfg.RedisPassword); err == nil {
			return dd, nil
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", attempts, err)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	if a.Dedup != nil {
		_ = a.Dedup.Close()
	}
	if a.Chains != nil {
		a.Chains.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
