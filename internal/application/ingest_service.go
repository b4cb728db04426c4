package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/monitoring"
	"profitpulse-sync-core/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const syncLockTTL = 15 * time.Minute

// SyncOptions tunes one ingestion run.
type SyncOptions struct {
	// Days overrides the configured lookback window when positive.
	Days int
	// Force re-ingests the whole window even when a previous sync exists.
	Force bool
}

// IngestService pulls data from connected platforms into canonical storage.
// Every write is an upsert on the record's natural key, so re-running any
// sync over an overlapping window is harmless. Sync methods return the set
// of calendar days whose stored data changed; scheduling recomputation for
// those days is the caller's job.
type IngestService struct {
	integrations ports.IntegrationRepository
	orders       ports.OrderRepository
	refunds      ports.RefundRepository
	adspend      ports.AdSpendRepository
	campaigns    ports.CampaignRepository
	synclogs     ports.SyncLogRepository
	factory      ports.ClientFactory
	tokens       *TokenManager
	oauth        *OAuthService
	locker       ports.Locker
	lookback     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

// NewIngestService creates a new ingest service
func NewIngestService(
	integrations ports.IntegrationRepository,
	orders ports.OrderRepository,
	refunds ports.RefundRepository,
	adspend ports.AdSpendRepository,
	campaigns ports.CampaignRepository,
	synclogs ports.SyncLogRepository,
	factory ports.ClientFactory,
	tokens *TokenManager,
	oauth *OAuthService,
	locker ports.Locker,
	lookbackDays int,
	logger zerolog.Logger,
) *IngestService {
	return &IngestService{
		integrations: integrations,
		orders:       orders,
		refunds:      refunds,
		adspend:      adspend,
		campaigns:    campaigns,
		synclogs:     synclogs,
		factory:      factory,
		tokens:       tokens,
		oauth:        oauth,
		locker:       locker,
		lookback:     time.Duration(lookbackDays) * 24 * time.Hour,
		logger:       logger,
		now:          time.Now,
	}
}

// SyncOrders ingests orders for one integration and returns the dirty days.
func (s *IngestService) SyncOrders(ctx context.Context, integrationID string, opts SyncOptions) ([]time.Time, error) {
	return s.run(ctx, integrationID, domain.SyncTypeOrders,
		func(ctx context.Context, i *domain.Integration, client ports.PlatformClient) (int, []time.Time, error) {
			commerce, ok := client.(ports.CommerceClient)
			if !ok {
				return 0, nil, fmt.Errorf("%w: %s has no order source", domain.ErrUnsupportedPlatform, i.Platform)
			}

			records, err := commerce.FetchOrders(ctx, s.sinceFor(i, opts))
			if err != nil {
				return 0, nil, err
			}

			dirty := newDaySet()
			for _, rec := range records {
				days, err := s.ApplyOrder(ctx, i.OrgID, i.Platform, rec)
				if err != nil {
					return 0, nil, err
				}
				dirty.addAll(days)
			}
			return len(records), dirty.sorted(), nil
		})
}

// SyncSpend ingests daily ad spend for one integration and returns the dirty
// days.
func (s *IngestService) SyncSpend(ctx context.Context, integrationID string, opts SyncOptions) ([]time.Time, error) {
	return s.run(ctx, integrationID, domain.SyncTypeMetrics,
		func(ctx context.Context, i *domain.Integration, client ports.PlatformClient) (int, []time.Time, error) {
			start := domain.DayOf(s.sinceFor(i, opts))
			end := domain.DayOf(s.now())

			records, err := client.FetchDailySpend(ctx, start, end)
			if err != nil {
				return 0, nil, err
			}

			dirty := newDaySet()
			syncedAt := s.now()
			for _, rec := range records {
				row := &domain.AdSpend{
					ID:          uuid.NewString(),
					OrgID:       i.OrgID,
					Date:        domain.DayOf(rec.Date),
					Platform:    i.Platform,
					AccountID:   rec.AccountID,
					Spend:       rec.Spend,
					Currency:    rec.Currency,
					Impressions: rec.Impressions,
					Clicks:      rec.Clicks,
					Conversions: rec.Conversions,
					SyncedAt:    syncedAt,
				}
				if err := s.adspend.Upsert(ctx, row); err != nil {
					return 0, nil, err
				}
				dirty.add(row.Date)
			}
			return len(records), dirty.sorted(), nil
		})
}

// SyncCampaigns ingests the campaign list for one integration. Campaigns do
// not feed daily metrics, so no dirty days come back.
func (s *IngestService) SyncCampaigns(ctx context.Context, integrationID string) error {
	_, err := s.run(ctx, integrationID, domain.SyncTypeCampaigns,
		func(ctx context.Context, i *domain.Integration, client ports.PlatformClient) (int, []time.Time, error) {
			records, err := client.FetchCampaigns(ctx)
			if err != nil {
				return 0, nil, err
			}

			syncedAt := s.now()
			for _, rec := range records {
				campaign := &domain.Campaign{
					ID:          uuid.NewString(),
					OrgID:       i.OrgID,
					ExternalID:  rec.ExternalID,
					Name:        rec.Name,
					Platform:    i.Platform,
					Status:      rec.Status,
					Spend:       rec.Spend,
					Impressions: rec.Impressions,
					Clicks:      rec.Clicks,
					Conversions: rec.Conversions,
					LastSyncAt:  &syncedAt,
				}
				if rec.Conversions > 0 {
					campaign.CPA = rec.Spend.InexactFloat64() / float64(rec.Conversions)
				}
				if err := s.campaigns.Upsert(ctx, campaign); err != nil {
					return 0, nil, err
				}
			}
			return len(records), nil, nil
		})
	return err
}

// ApplyOrder persists one normalized order plus any refunds embedded in its
// raw payload. This is the single write path for both polled and
// webhook-delivered orders. Returns the days whose aggregates are now stale:
// the order's own day and each refund's day.
func (s *IngestService) ApplyOrder(ctx context.Context, orgID string, source domain.Platform, rec domain.OrderRecord) ([]time.Time, error) {
	order := &domain.Order{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		ExternalID:    rec.ExternalID,
		Source:        source,
		StoreID:       rec.StoreID,
		OrderDate:     rec.OrderDate,
		TotalAmount:   rec.TotalAmount,
		Currency:      rec.Currency,
		Status:        rec.Status,
		CustomerID:    rec.CustomerID,
		CustomerEmail: rec.CustomerEmail,
		IsNewCustomer: rec.IsNewCustomer,
		Raw:           rec.Raw,
		SyncedAt:      s.now(),
	}

	if err := s.orders.Upsert(ctx, order); err != nil {
		return nil, err
	}

	dirty := newDaySet()
	dirty.add(domain.DayOf(order.OrderDate))

	for _, refund := range domain.ExtractRefunds(order) {
		refund.ID = uuid.NewString()
		if err := s.refunds.Upsert(ctx, refund); err != nil {
			return nil, err
		}
		dirty.add(domain.DayOf(refund.RefundDate))
	}

	return dirty.sorted(), nil
}

type syncFn func(ctx context.Context, i *domain.Integration, client ports.PlatformClient) (int, []time.Time, error)

// run wraps one sync execution with the shared lifecycle: integration
// lookup, per-integration lock, sync log bookkeeping, client construction,
// and a single refresh-and-retry on expired credentials.
func (s *IngestService) run(ctx context.Context, integrationID string, syncType domain.SyncType, fn syncFn) ([]time.Time, error) {
	i, err := s.integrations.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if i == nil || !i.Connected {
		s.logger.Debug().Str("integrationId", integrationID).Msg("Integration missing or disconnected, skipping sync")
		return nil, nil
	}

	lockKey := fmt.Sprintf("sync:%s:%s", syncType, i.ID)
	acquired, err := s.locker.Acquire(ctx, lockKey, syncLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.logger.Debug().Str("integrationId", i.ID).Str("type", string(syncType)).Msg("Sync already running")
		return nil, fmt.Errorf("%w: %s %s", domain.ErrSyncInProgress, syncType, i.ID)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn().Err(err).Str("key", lockKey).Msg("Failed to release sync lock")
		}
	}()

	log := &domain.SyncLog{
		ID:            uuid.NewString(),
		OrgID:         i.OrgID,
		IntegrationID: i.ID,
		Type:          syncType,
		Status:        domain.SyncStatusInProgress,
		StartedAt:     s.now(),
	}
	if err := s.synclogs.Create(ctx, log); err != nil {
		return nil, err
	}

	count, dirty, err := s.execute(ctx, i, fn)

	if errors.Is(err, domain.ErrUnsupportedPlatform) {
		// No client variant for this platform. Not a failure: record an empty
		// run so operators can see the platform was considered.
		s.logger.Info().Str("platform", i.Platform.String()).Str("type", string(syncType)).
			Msg("Sync not available for platform")
		count, dirty, err = 0, nil, nil
	}

	if err != nil {
		log.MarkFailed(err.Error(), s.now())
		if uerr := s.synclogs.Update(ctx, log); uerr != nil {
			s.logger.Error().Err(uerr).Msg("Failed to update sync log")
		}
		monitoring.SyncRuns.WithLabelValues(string(syncType), "failed").Inc()
		return nil, err
	}

	now := s.now()
	i.LastSyncAt = &now
	if uerr := s.integrations.Update(ctx, i); uerr != nil {
		s.logger.Warn().Err(uerr).Str("integrationId", i.ID).Msg("Failed to record last sync time")
	}

	log.MarkSuccess(count, now)
	if uerr := s.synclogs.Update(ctx, log); uerr != nil {
		s.logger.Error().Err(uerr).Msg("Failed to update sync log")
	}
	monitoring.SyncRuns.WithLabelValues(string(syncType), "success").Inc()

	s.logger.Info().
		Str("platform", i.Platform.String()).
		Str("orgId", i.OrgID).
		Str("type", string(syncType)).
		Int("records", count).
		Int("dirtyDays", len(dirty)).
		Msg("Sync completed")

	return dirty, nil
}

// execute runs fn, refreshing credentials and retrying exactly once when the
// platform rejects the token. fn only performs upserts, so the full re-run
// is safe.
func (s *IngestService) execute(ctx context.Context, i *domain.Integration, fn syncFn) (int, []time.Time, error) {
	client, err := s.client(i)
	if err != nil {
		return 0, nil, err
	}

	count, dirty, err := fn(ctx, i, client)
	if !errors.Is(err, domain.ErrAuthenticationExpired) {
		return count, dirty, err
	}

	s.logger.Warn().Str("platform", i.Platform.String()).Str("orgId", i.OrgID).
		Msg("Platform rejected credentials, attempting refresh")
	if rerr := s.oauth.Refresh(ctx, i); rerr != nil {
		return 0, nil, fmt.Errorf("credential refresh failed: %w", rerr)
	}

	client, err = s.client(i)
	if err != nil {
		return 0, nil, err
	}
	return fn(ctx, i, client)
}

func (s *IngestService) client(i *domain.Integration) (ports.PlatformClient, error) {
	token, err := s.tokens.AccessToken(i)
	if err != nil {
		return nil, err
	}
	return s.factory.ClientFor(i, token)
}

// sinceFor picks the fetch window start: the last successful sync, or the
// lookback window for a first or forced sync.
func (s *IngestService) sinceFor(i *domain.Integration, opts SyncOptions) time.Time {
	lookback := s.lookback
	if opts.Days > 0 {
		lookback = time.Duration(opts.Days) * 24 * time.Hour
	}
	if opts.Force || i.LastSyncAt == nil {
		return s.now().Add(-lookback)
	}
	return *i.LastSyncAt
}

// daySet deduplicates dirty days.
type daySet struct {
	days map[string]time.Time
}

func newDaySet() *daySet {
	return &daySet{days: make(map[string]time.Time)}
}

func (d *daySet) add(day time.Time) {
	day = domain.DayOf(day)
	d.days[domain.DateKey(day)] = day
}

func (d *daySet) addAll(days []time.Time) {
	for _, day := range days {
		d.add(day)
	}
}

func (d *daySet) sorted() []time.Time {
	out := make([]time.Time, 0, len(d.days))
	for _, day := range d.days {
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
