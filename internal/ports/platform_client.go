package ports

import (
	"context"
	"time"

	"profitpulse-sync-core/internal/domain"
)

// PlatformClient is the capability surface every connected platform
// implements. Implementations normalize provider responses into canonical
// records, follow the provider's own pagination cursor until exhausted, and
// absorb rate-limit responses by honoring the provider-supplied delay and
// re-issuing the request. Expired or revoked credentials surface as
// domain.ErrAuthenticationExpired so the caller can refresh and retry once.
type PlatformClient interface {
	Platform() domain.Platform
	FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error)
	FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error)
}

// CommerceClient extends PlatformClient for order sources.
type CommerceClient interface {
	PlatformClient
	FetchOrders(ctx context.Context, since time.Time) ([]domain.OrderRecord, error)
}

// ClientFactory binds a platform client to an integration's decrypted
// credentials. Returns domain.ErrUnsupportedPlatform for platforms without a
// client variant.
type ClientFactory interface {
	ClientFor(integration *domain.Integration, accessToken string) (PlatformClient, error)
}
