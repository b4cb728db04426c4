package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"profitpulse-sync-core/internal/application"
	"profitpulse-sync-core/internal/application/webhook_handlers"
	"profitpulse-sync-core/internal/config"
	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/encryption"
	"profitpulse-sync-core/internal/infrastructure/locks"
	"profitpulse-sync-core/internal/infrastructure/monitoring"
	"profitpulse-sync-core/internal/infrastructure/platforms"
	"profitpulse-sync-core/internal/infrastructure/repository"
	"profitpulse-sync-core/internal/infrastructure/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)

	// Connect to Redis (cross-process sync locks)
	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	// Initialize infrastructure
	vault, err := encryption.NewService(cfg.EncryptionKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Initialize repositories
	integrationRepo := repository.NewMongoIntegrationRepository(db)
	stateRepo := repository.NewMongoOAuthStateRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	refundRepo := repository.NewMongoRefundRepository(db)
	adSpendRepo := repository.NewMongoAdSpendRepository(db)
	campaignRepo := repository.NewMongoCampaignRepository(db)
	expenseRepo := repository.NewMongoExpenseRepository(db)
	metricsRepo := repository.NewMongoMetricsRepository(db)
	syncLogRepo := repository.NewMongoSyncLogRepository(db)

	// Initialize platform clients and task scheduler
	factory := platforms.NewFactory(cfg.RequestTimeout, logger)
	locker := locks.NewRedisLocker(redisClient, "profitpulse:")
	pool := scheduler.NewPool(cfg.WorkerCount, cfg.TaskMaxAttempts, cfg.TaskBackoff, cfg.TaskTimeout, logger)
	pool.Start(ctx)
	defer pool.Shutdown()

	// Initialize application services
	tokenManager := application.NewTokenManager(vault)
	oauthService := application.NewOAuthService(cfg, integrationRepo, stateRepo, tokenManager, logger)
	ingestService := application.NewIngestService(
		integrationRepo,
		orderRepo,
		refundRepo,
		adSpendRepo,
		campaignRepo,
		syncLogRepo,
		factory,
		tokenManager,
		oauthService,
		locker,
		cfg.SyncLookbackDays,
		logger,
	)
	metricsService := application.NewMetricsService(orderRepo, refundRepo, adSpendRepo, expenseRepo, metricsRepo, logger)
	syncService := application.NewSyncService(
		integrationRepo,
		syncLogRepo,
		orderRepo,
		ingestService,
		metricsService,
		pool,
		cfg.SyncLookbackDays,
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookVerifier := platforms.NewWebhookVerifier(cfg.ShopifyWebhookSecret)
	dispatcher := webhook_handlers.NewDispatcher(logger,
		webhook_handlers.NewOrderHandler(integrationRepo, ingestService, metricsService, pool, logger),
		webhook_handlers.NewAppUninstalledHandler(integrationRepo, oauthService, logger),
	)

	// Periodic housekeeping
	pool.Every(ctx, time.Hour, application.NewStateCleanupTask(oauthService))

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(identityMiddleware(logger))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// OAuth routes
	r.Get("/auth/{platform}", oauthBeginHandler(oauthService, logger))
	r.Get("/auth/{platform}/callback", oauthCallbackHandler(oauthService, cfg, logger))

	// Webhook endpoint
	r.Post("/webhooks/shopify", webhookHandler(webhookVerifier, dispatcher, logger))

	// Sync API
	r.Post("/api/v1/sync/trigger", syncTriggerHandler(syncService, logger))
	r.Get("/api/v1/sync/status", syncStatusHandler(syncService, logger))
	r.Delete("/api/v1/integrations/{platform}", disconnectHandler(oauthService, logger))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("port", cfg.Port).Msg("Starting sync core API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// identityMiddleware resolves the calling organization and user from trusted
// gateway headers. Webhooks and OAuth callbacks arrive from external systems
// and carry no identity.
func identityMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	public := map[string]bool{
		"/health":           true,
		"/metrics":          true,
		"/webhooks/shopify": true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if public[path] || isOAuthCallback(path) {
				next.ServeHTTP(w, r)
				return
			}

			orgID := r.Header.Get("X-Organization-ID")
			if orgID == "" {
				http.Error(w, "X-Organization-ID header is required", http.StatusBadRequest)
				return
			}

			ctx := domain.WithOrgID(r.Context(), orgID)
			if userID := r.Header.Get("X-User-ID"); userID != "" {
				ctx = domain.WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isOAuthCallback(path string) bool {
	// /auth/{platform}/callback
	return len(path) > len("/auth/") && path[:6] == "/auth/" && len(path) > 9 && path[len(path)-9:] == "/callback"
}

// oauthBeginHandler starts the authorization flow and redirects to the
// provider
func oauthBeginHandler(oauth *application.OAuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := domain.Platform(chi.URLParam(r, "platform"))
		shop := r.URL.Query().Get("shop")

		if platform == domain.PlatformShopify && shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		authorizeURL, err := oauth.Begin(r.Context(), platform, shop)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedPlatform) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str("platform", platform.String()).Msg("Failed to begin OAuth flow")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the flow and redirects to the frontend with
// a status code in the query string
func oauthCallbackHandler(oauth *application.OAuthService, cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform := domain.Platform(chi.URLParam(r, "platform"))
		q := r.URL.Query()

		redirect := func(status string) {
			target := fmt.Sprintf("%s/integrations?platform=%s&status=%s",
				cfg.FrontendURL, url.QueryEscape(platform.String()), status)
			http.Redirect(w, r, target, http.StatusFound)
		}

		if q.Get("error") != "" {
			logger.Warn().Str("platform", platform.String()).Str("error", q.Get("error")).Msg("Provider denied authorization")
			redirect("denied")
			return
		}
		if q.Get("code") == "" || q.Get("state") == "" {
			redirect("missing_params")
			return
		}

		_, err := oauth.Complete(r.Context(), application.CompleteParams{
			Platform:  platform,
			Code:      q.Get("code"),
			State:     q.Get("state"),
			Shop:      q.Get("shop"),
			AccountID: q.Get("account_id"),
		})
		switch {
		case err == nil:
			redirect("connected")
		case errors.Is(err, domain.ErrExpiredOAuthState):
			redirect("expired_state")
		case errors.Is(err, domain.ErrInvalidOAuthState):
			redirect("invalid_state")
		case errors.Is(err, domain.ErrUnsupportedPlatform):
			redirect("unsupported_platform")
		default:
			logger.Error().Err(err).Str("platform", platform.String()).Msg("Failed to complete OAuth flow")
			redirect("failed")
		}
	}
}

// webhookHandler verifies and dispatches Shopify webhook deliveries
func webhookHandler(verifier *platforms.WebhookVerifier, dispatcher *webhook_handlers.Dispatcher, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
			monitoring.WebhooksReceived.WithLabelValues(topic, "rejected").Inc()
			logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		event := &domain.WebhookEvent{
			Topic:      topic,
			Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
			Payload:    payload,
			ReceivedAt: time.Now(),
		}

		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			if errors.Is(err, domain.ErrIntegrationNotFound) {
				// Unknown shop. Acknowledge so the provider stops retrying a
				// delivery we can never attribute.
				monitoring.WebhooksReceived.WithLabelValues(topic, "ignored").Inc()
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{"received": "true"})
				return
			}
			monitoring.WebhooksReceived.WithLabelValues(topic, "failed").Inc()
			logger.Error().Err(err).Str("topic", topic).Msg("Failed to dispatch webhook event")
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		monitoring.WebhooksReceived.WithLabelValues(topic, "ok").Inc()
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

// syncTriggerHandler runs a full sync for the calling organization and
// returns the partial-success summary. Accepts days (window override) and
// force (re-ingest the whole window) query parameters.
func syncTriggerHandler(sync *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := domain.OrgIDFromContext(r.Context())
		q := r.URL.Query()

		opts := application.SyncOptions{Force: q.Get("force") == "true"}
		if v := q.Get("days"); v != "" {
			days, err := strconv.Atoi(v)
			if err != nil || days < 1 {
				http.Error(w, "days must be a positive integer", http.StatusBadRequest)
				return
			}
			opts.Days = days
		}

		summary, err := sync.TriggerFullSync(r.Context(), orgID, opts)
		if err != nil {
			logger.Error().Err(err).Str("orgId", orgID).Msg("Failed to trigger sync")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// syncStatusHandler reports the organization's sync state
func syncStatusHandler(sync *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := domain.OrgIDFromContext(r.Context())

		status, err := sync.Status(r.Context(), orgID)
		if err != nil {
			logger.Error().Err(err).Str("orgId", orgID).Msg("Failed to get sync status")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

// disconnectHandler removes a platform connection
func disconnectHandler(oauth *application.OAuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := domain.OrgIDFromContext(r.Context())
		platform := domain.Platform(chi.URLParam(r, "platform"))

		err := oauth.Disconnect(r.Context(), orgID, platform)
		switch {
		case errors.Is(err, domain.ErrIntegrationNotFound):
			http.Error(w, "Integration not found", http.StatusNotFound)
		case err != nil:
			logger.Error().Err(err).Str("platform", platform.String()).Msg("Failed to disconnect integration")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
