package platforms

import (
	"context"
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
)

// GoogleClient is a placeholder for Google Ads. The OAuth flow works and
// stores credentials; data sync waits on a Google Ads API developer token, so
// both fetch methods report empty results instead of failing the sync run.
type GoogleClient struct {
	customerID string
	logger     zerolog.Logger
}

func NewGoogleClient(customerID string, logger zerolog.Logger) *GoogleClient {
	return &GoogleClient{
		customerID: customerID,
		logger:     logger.With().Str("platform", "google").Str("customer_id", customerID).Logger(),
	}
}

func (c *GoogleClient) Platform() domain.Platform { return domain.PlatformGoogle }

func (c *GoogleClient) FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error) {
	c.logger.Debug().Msg("Campaign sync not implemented for google")
	return nil, nil
}

func (c *GoogleClient) FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error) {
	c.logger.Debug().Msg("Daily spend reporting not implemented for google")
	return nil, nil
}
