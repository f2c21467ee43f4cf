package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	infisical "github.com/infisical/go-sdk"
	"github.com/joho/godotenv"

	"github.com/web3-frozen/ovn-pools/internal/pool"
)

type Config struct {
	Port           string
	DatabaseURL    string
	TelegramToken  string
	TelegramChatID int64
	FrontendOrigin string
	RedisURL       string
	RedisPassword  string

	SyncInterval    time.Duration
	SkimInterval    time.Duration
	StaleAfter      time.Duration
	BrowserSessions int
	AdapterWorkers  int
	HTTPTimeout     time.Duration
	PageTimeout     time.Duration
	ChromePath      string
	AddressBook     string
	CoinGeckoAPIKey string

	// RPC and PayoutListeners are keyed by chain; chains without a value are absent.
	RPC             map[pool.Chain]string
	PayoutListeners map[pool.Chain]string
}

// Load reads the environment, after merging in a .env file when present.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := Config{
		Port:           envOr("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		RedisURL:       envOr("REDIS_URL", "redis://redis-master.redis.svc.cluster.local:6379/0"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),

		SyncInterval:    envDuration("SYNC_INTERVAL", 10*time.Minute),
		SkimInterval:    envDuration("SKIM_INTERVAL", time.Hour),
		StaleAfter:      envDuration("STALE_AFTER", 6*time.Hour),
		BrowserSessions: int(envInt64("BROWSER_SESSIONS", 3)),
		AdapterWorkers:  int(envInt64("ADAPTER_WORKERS", 3)),
		HTTPTimeout:     envDuration("HTTP_TIMEOUT", 80*time.Second),
		PageTimeout:     envDuration("PAGE_TIMEOUT", 60*time.Second),
		ChromePath:      os.Getenv("CHROME_PATH"),
		AddressBook:     os.Getenv("ADDRESS_BOOK"),
		CoinGeckoAPIKey: os.Getenv("COINGECKO_API_KEY"),

		RPC:             perChain("RPC_"),
		PayoutListeners: perChain("PAYOUT_LISTENER_"),
	}

	// If Infisical credentials are available, fetch secrets from Infisical
	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	return cfg
}

func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL",
		"http://infisical-infisical-standalone-infisical.infisical.svc.cluster.local:8080")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	if _, err := client.Auth().UniversalAuthLogin(clientID, clientSecret); err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	retrieve := func(key string, target *string) bool {
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Debug("secret not retrieved from infisical", "key", key, "error", err)
			return false
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
		return true
	}

	secrets := map[string]*string{
		"DATABASE_URL":       &cfg.DatabaseURL,
		"TELEGRAM_BOT_TOKEN": &cfg.TelegramToken,
		"REDIS_PASSWORD":     &cfg.RedisPassword,
		"COINGECKO_API_KEY":  &cfg.CoinGeckoAPIKey,
	}
	// RPC URLs often embed provider keys.
	for _, c := range pool.Chains {
		if cfg.RPC[c] != "" {
			continue
		}
		v := ""
		if retrieve("RPC_"+string(c), &v) {
			cfg.RPC[c] = v
		}
	}

	for key, target := range secrets {
		if *target != "" {
			continue // env var already set, skip
		}
		retrieve(key, target)
	}
}

func perChain(prefix string) map[pool.Chain]string {
	out := make(map[pool.Chain]string)
	for _, c := range pool.Chains {
		if v := os.Getenv(prefix + string(c)); v != "" {
			out[c] = v
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", v)
		return fallback
	}
	return n
}
