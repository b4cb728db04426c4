package ports

import (
	"context"
	"time"

	"profitpulse-sync-core/internal/domain"
)

// IntegrationRepository persists platform connections. Upsert keys on
// (org, platform); concurrent upserts converge to the latest state.
type IntegrationRepository interface {
	Upsert(ctx context.Context, integration *domain.Integration) error
	Update(ctx context.Context, integration *domain.Integration) error
	GetByID(ctx context.Context, id string) (*domain.Integration, error)
	GetByOrgAndPlatform(ctx context.Context, orgID string, platform domain.Platform) (*domain.Integration, error)
	// GetByAccountID resolves an integration from the platform's own account
	// identifier; used by the webhook adapter.
	GetByAccountID(ctx context.Context, platform domain.Platform, accountID string) (*domain.Integration, error)
	ListConnected(ctx context.Context, orgID string) ([]*domain.Integration, error)
	Disconnect(ctx context.Context, orgID string, platform domain.Platform) error
}

// OAuthStateRepository persists single-use authorization state tokens.
type OAuthStateRepository interface {
	Create(ctx context.Context, state *domain.OAuthState) error
	// Consume atomically looks up and deletes the state row, so a second call
	// with the same token fails with domain.ErrInvalidOAuthState regardless
	// of what the first caller did next.
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
	// DeleteExpired removes stale rows; run periodically.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// OrderRepository persists canonical orders keyed (org, external id, source).
type OrderRepository interface {
	Upsert(ctx context.Context, order *domain.Order) error
	ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Order, error)
	CountByOrg(ctx context.Context, orgID string) (int64, error)
}

// RefundRepository persists refunds keyed (org, external id).
type RefundRepository interface {
	Upsert(ctx context.Context, refund *domain.Refund) error
	ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Refund, error)
}

// AdSpendRepository persists daily spend keyed (org, date, platform, account).
type AdSpendRepository interface {
	Upsert(ctx context.Context, spend *domain.AdSpend) error
	ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.AdSpend, error)
}

// CampaignRepository persists campaigns keyed (org, external id).
type CampaignRepository interface {
	Upsert(ctx context.Context, campaign *domain.Campaign) error
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Campaign, error)
}

// ExpenseRepository persists the expense ledger. Recurrence evaluation
// happens in the aggregator against the full active set.
type ExpenseRepository interface {
	Upsert(ctx context.Context, expense *domain.Expense) error
	ListActive(ctx context.Context, orgID string) ([]*domain.Expense, error)
}

// MetricsRepository persists daily snapshots keyed (org, date).
type MetricsRepository interface {
	Upsert(ctx context.Context, metrics *domain.DailyMetrics) error
	Get(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error)
}

// SyncLogRepository persists ingestion run logs.
type SyncLogRepository interface {
	Create(ctx context.Context, log *domain.SyncLog) error
	Update(ctx context.Context, log *domain.SyncLog) error
	HasInProgress(ctx context.Context, orgID string) (bool, error)
	LatestCompleted(ctx context.Context, orgID string) (*domain.SyncLog, error)
}
