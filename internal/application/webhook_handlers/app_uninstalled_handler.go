package webhook_handlers

import (
	"context"

	"profitpulse-sync-core/internal/application"
	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/platforms"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler disconnects the integration when the merchant
// removes the app. Historical data stays; only the credentials go.
type AppUninstalledHandler struct {
	integrations ports.IntegrationRepository
	oauth        *application.OAuthService
	logger       zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstall webhook handler
func NewAppUninstalledHandler(
	integrations ports.IntegrationRepository,
	oauth *application.OAuthService,
	logger zerolog.Logger,
) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		integrations: integrations,
		oauth:        oauth,
		logger:       logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle disconnects the shop's integration
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shop := platforms.NormalizeShopDomain(event.Shop)

	integration, err := h.integrations.GetByAccountID(ctx, domain.PlatformShopify, shop)
	if err != nil {
		return err
	}
	if integration == nil {
		h.logger.Warn().Str("shop", shop).Msg("Uninstall webhook for unknown shop")
		return nil
	}

	if err := h.oauth.Disconnect(ctx, integration.OrgID, domain.PlatformShopify); err != nil {
		return err
	}

	h.logger.Info().Str("shop", shop).Str("orgId", integration.OrgID).Msg("App uninstalled, integration disconnected")
	return nil
}
