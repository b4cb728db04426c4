package webhook_handlers

import (
	"context"
	"fmt"

	"profitpulse-sync-core/internal/application"
	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/platforms"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
)

// OrderHandler ingests order webhooks through the same normalization and
// write path as polled orders, so a webhook delivery and a later poll of the
// same order converge on one stored record.
type OrderHandler struct {
	integrations ports.IntegrationRepository
	ingest       *application.IngestService
	metrics      *application.MetricsService
	scheduler    ports.Scheduler
	logger       zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(
	integrations ports.IntegrationRepository,
	ingest *application.IngestService,
	metrics *application.MetricsService,
	scheduler ports.Scheduler,
	logger zerolog.Logger,
) *OrderHandler {
	return &OrderHandler{
		integrations: integrations,
		ingest:       ingest,
		metrics:      metrics,
		scheduler:    scheduler,
		logger:       logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/paid" ||
		topic == "orders/cancelled"
}

// Handle applies the order payload and schedules recomputation for the days
// it touched
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shop := platforms.NormalizeShopDomain(event.Shop)

	integration, err := h.integrations.GetByAccountID(ctx, domain.PlatformShopify, shop)
	if err != nil {
		return err
	}
	if integration == nil || !integration.Connected {
		h.logger.Warn().Str("shop", shop).Str("topic", event.Topic).
			Msg("Webhook for unknown or disconnected shop")
		return domain.ErrIntegrationNotFound
	}

	rec, err := platforms.NormalizeShopifyOrder(shop, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to normalize webhook order: %w", err)
	}

	dirty, err := h.ingest.ApplyOrder(ctx, integration.OrgID, domain.PlatformShopify, rec)
	if err != nil {
		return err
	}
	for _, day := range dirty {
		h.scheduler.Enqueue(application.NewAggregateTask(h.metrics, integration.OrgID, day))
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shop).
		Str("orderId", rec.ExternalID).
		Int("dirtyDays", len(dirty)).
		Msg("Processed order webhook")

	return nil
}
