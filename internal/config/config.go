package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"profitpulse-sync-core/internal/domain"
)

// PlatformOAuth is the fixed OAuth contract for one platform. Authorize and
// token URLs may contain a {shop} placeholder filled from the connect
// request (Shopify-style per-store endpoints).
type PlatformOAuth struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	Scopes       []string
}

// Config is built once at startup and passed explicitly to the services that
// need it. Business logic never reads the environment.
type Config struct {
	Port          string
	AppURL        string
	FrontendURL   string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	EncryptionKey string

	ShopifyWebhookSecret string

	SyncLookbackDays int
	TaskMaxAttempts  int
	TaskBackoff      time.Duration
	TaskTimeout      time.Duration
	WorkerCount      int
	RequestTimeout   time.Duration

	Platforms map[domain.Platform]PlatformOAuth
}

// Load reads configuration from the environment. Credentials follow the
// {PLATFORM}_CLIENT_ID / {PLATFORM}_CLIENT_SECRET convention; the endpoint
// table itself is a fixed external contract.
func Load() Config {
	cfg := Config{
		Port:                 envOr("PORT", "8080"),
		AppURL:               envOr("APP_URL", "http://localhost:8080"),
		FrontendURL:          envOr("FRONTEND_URL", "http://localhost:5173"),
		MongoURI:             envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:        envOr("MONGODB_DATABASE", "profitpulse"),
		RedisAddr:            envOr("REDIS_ADDR", "localhost:6379"),
		EncryptionKey:        os.Getenv("ENCRYPTION_KEY"),
		ShopifyWebhookSecret: os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		SyncLookbackDays:     envIntOr("SYNC_LOOKBACK_DAYS", 30),
		TaskMaxAttempts:      envIntOr("TASK_MAX_ATTEMPTS", 3),
		TaskBackoff:          envDurationOr("TASK_BACKOFF", 5*time.Minute),
		TaskTimeout:          envDurationOr("TASK_TIMEOUT", 10*time.Minute),
		WorkerCount:          envIntOr("WORKER_COUNT", 8),
		RequestTimeout:       envDurationOr("REQUEST_TIMEOUT", 30*time.Second),
		Platforms:            platformTable(),
	}
	return cfg
}

// platformTable enumerates the supported platforms. Adding a platform means
// adding one row here plus one client variant in infrastructure/platforms.
func platformTable() map[domain.Platform]PlatformOAuth {
	return map[domain.Platform]PlatformOAuth{
		domain.PlatformSalla: {
			ClientID:     os.Getenv("SALLA_CLIENT_ID"),
			ClientSecret: os.Getenv("SALLA_CLIENT_SECRET"),
			AuthorizeURL: "https://accounts.salla.sa/oauth2/auth",
			TokenURL:     "https://accounts.salla.sa/oauth2/token",
			Scopes:       []string{"offline_access"},
		},
		domain.PlatformShopify: {
			ClientID:     os.Getenv("SHOPIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SHOPIFY_CLIENT_SECRET"),
			AuthorizeURL: "https://{shop}.myshopify.com/admin/oauth/authorize",
			TokenURL:     "https://{shop}.myshopify.com/admin/oauth/access_token",
			Scopes:       []string{"read_orders", "read_products", "read_customers"},
		},
		domain.PlatformMeta: {
			ClientID:     os.Getenv("META_CLIENT_ID"),
			ClientSecret: os.Getenv("META_CLIENT_SECRET"),
			AuthorizeURL: "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL:     "https://graph.facebook.com/v18.0/oauth/access_token",
			Scopes:       []string{"ads_read", "business_management"},
		},
		domain.PlatformGoogle: {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			AuthorizeURL: "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			Scopes:       []string{"https://www.googleapis.com/auth/adwords"},
		},
		domain.PlatformTikTok: {
			ClientID:     os.Getenv("TIKTOK_CLIENT_ID"),
			ClientSecret: os.Getenv("TIKTOK_CLIENT_SECRET"),
			AuthorizeURL: "https://business-api.tiktok.com/open_api/v1.3/oauth/authorize/",
			TokenURL:     "https://business-api.tiktok.com/open_api/v1.3/oauth/access_token/",
			Scopes:       []string{"advertiser.basic.read", "advertiser.report.read"},
		},
		domain.PlatformSnapchat: {
			ClientID:     os.Getenv("SNAPCHAT_CLIENT_ID"),
			ClientSecret: os.Getenv("SNAPCHAT_CLIENT_SECRET"),
			AuthorizeURL: "https://accounts.snapchat.com/login/oauth2/authorize",
			TokenURL:     "https://accounts.snapchat.com/login/oauth2/access_token",
			Scopes:       []string{"snapchat-marketing-api"},
		},
	}
}

// Platform returns the OAuth contract for a platform, or
// domain.ErrUnsupportedPlatform when no row exists.
func (c Config) Platform(p domain.Platform) (PlatformOAuth, error) {
	po, ok := c.Platforms[p]
	if !ok {
		return PlatformOAuth{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, p)
	}
	return po, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
