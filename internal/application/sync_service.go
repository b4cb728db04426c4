package application

import (
	"context"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
)

// SyncService orchestrates full-organization sync runs. TriggerFullSync runs
// each integration's ingestion synchronously under the scheduler's retry
// policy and then recomputes every snapshot in the lookback window, so the
// caller sees a partial-success summary when it returns. One integration
// failing never blocks the others or the aggregation pass; the unconditional
// pass is the safety net that catches expense edits and partially failed
// ingestions.
type SyncService struct {
	integrations ports.IntegrationRepository
	synclogs     ports.SyncLogRepository
	orders       ports.OrderRepository
	ingest       *IngestService
	metrics      *MetricsService
	scheduler    ports.Scheduler
	windowDays   int
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSyncService creates a new sync orchestration service
func NewSyncService(
	integrations ports.IntegrationRepository,
	synclogs ports.SyncLogRepository,
	orders ports.OrderRepository,
	ingest *IngestService,
	metrics *MetricsService,
	scheduler ports.Scheduler,
	windowDays int,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		integrations: integrations,
		synclogs:     synclogs,
		orders:       orders,
		ingest:       ingest,
		metrics:      metrics,
		scheduler:    scheduler,
		windowDays:   windowDays,
		logger:       logger,
		now:          time.Now,
	}
}

// SyncSummary reports how a full sync run went. FirstError carries the first
// per-integration failure; the run itself still completes.
type SyncSummary struct {
	IntegrationsSynced int    `json:"integrations_synced"`
	IntegrationsFailed int    `json:"integrations_failed"`
	DaysAggregated     int    `json:"days_aggregated"`
	FirstError         string `json:"first_error,omitempty"`
}

// TriggerFullSync ingests every connected integration and recomputes the
// snapshot for every day in [today - days, today] inclusive. Per-integration
// failures land in the summary; the returned error is reserved for failures
// of the run itself.
func (s *SyncService) TriggerFullSync(ctx context.Context, orgID string, opts SyncOptions) (*SyncSummary, error) {
	integrations, err := s.integrations.ListConnected(ctx, orgID)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{}
	for _, i := range integrations {
		if err := s.syncIntegration(ctx, i, opts); err != nil {
			summary.IntegrationsFailed++
			if summary.FirstError == "" {
				summary.FirstError = err.Error()
			}
			s.logger.Error().Err(err).
				Str("integrationId", i.ID).
				Str("platform", i.Platform.String()).
				Msg("Integration sync failed")
			continue
		}
		summary.IntegrationsSynced++
	}

	// Aggregation runs regardless of what ingestion did: snapshots must
	// converge even when every platform fetch fails.
	days := s.windowDays
	if opts.Days > 0 {
		days = opts.Days
	}
	today := domain.DayOf(s.now())
	for d := 0; d <= days; d++ {
		day := today.AddDate(0, 0, -d)
		if err := s.scheduler.RunNow(ctx, NewAggregateTask(s.metrics, orgID, day)); err != nil {
			if summary.FirstError == "" {
				summary.FirstError = err.Error()
			}
			s.logger.Error().Err(err).Str("date", domain.DateKey(day)).Msg("Aggregation failed")
			continue
		}
		summary.DaysAggregated++
	}

	s.logger.Info().
		Str("orgId", orgID).
		Int("synced", summary.IntegrationsSynced).
		Int("failed", summary.IntegrationsFailed).
		Int("daysAggregated", summary.DaysAggregated).
		Msg("Full sync finished")

	return summary, nil
}

// syncIntegration runs every ingestion the platform supports and reports the
// first failure after attempting all of them.
func (s *SyncService) syncIntegration(ctx context.Context, i *domain.Integration, opts SyncOptions) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if i.Platform.IsCommerce() {
		record(s.scheduler.RunNow(ctx, NewOrderSyncTask(s.ingest, s.metrics, s.scheduler, i.OrgID, i.ID, opts)))
	}
	if i.Platform.IsAds() {
		record(s.scheduler.RunNow(ctx, NewSpendSyncTask(s.ingest, s.metrics, s.scheduler, i.OrgID, i.ID, opts)))
		record(s.scheduler.RunNow(ctx, NewCampaignSyncTask(s.ingest, s.scheduler, i.ID)))
	}
	return firstErr
}

// SyncStatus summarizes an organization's sync state for the status endpoint.
type SyncStatus struct {
	InProgress  bool            `json:"in_progress"`
	LastSync    *domain.SyncLog `json:"last_sync,omitempty"`
	TotalOrders int64           `json:"total_orders"`
}

// Status reports whether a sync is running and how the last one ended.
func (s *SyncService) Status(ctx context.Context, orgID string) (*SyncStatus, error) {
	inProgress, err := s.synclogs.HasInProgress(ctx, orgID)
	if err != nil {
		return nil, err
	}
	last, err := s.synclogs.LatestCompleted(ctx, orgID)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	return &SyncStatus{
		InProgress:  inProgress,
		LastSync:    last,
		TotalOrders: total,
	}, nil
}
