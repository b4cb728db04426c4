package webhook_handlers

import (
	"context"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
)

// Handler processes webhook events for the topics it declares.
type Handler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// Dispatcher routes a verified webhook event to the first handler that
// claims its topic. Unclaimed topics are acknowledged and dropped so
// providers do not retry deliveries we will never process.
type Dispatcher struct {
	handlers []Handler
	logger   zerolog.Logger
}

// NewDispatcher creates a new webhook dispatcher
func NewDispatcher(logger zerolog.Logger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Dispatch routes the event to its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	for _, h := range d.handlers {
		if h.CanHandle(event.Topic) {
			return h.Handle(ctx, event)
		}
	}
	d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	return nil
}
