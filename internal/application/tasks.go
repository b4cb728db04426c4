package application

import (
	"context"
	"errors"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"
)

// lockRetryDelay is how long a task waits before re-enqueueing itself when
// another run holds the integration's sync lock.
const lockRetryDelay = time.Minute

// Task adapters bind service calls to the scheduler. Ingestion tasks enqueue
// one aggregation task per dirty day on success; a failed ingestion is
// retried whole by the scheduler and schedules nothing. Lock contention is
// not a failure: the task re-enqueues itself with a delay so the work runs
// after the current holder finishes.

// OrderSyncTask ingests orders for one integration.
type OrderSyncTask struct {
	ingest    *IngestService
	metrics   *MetricsService
	scheduler ports.Scheduler

	OrgID         string
	IntegrationID string
	Opts          SyncOptions
}

func NewOrderSyncTask(ingest *IngestService, metrics *MetricsService, scheduler ports.Scheduler, orgID, integrationID string, opts SyncOptions) *OrderSyncTask {
	return &OrderSyncTask{ingest: ingest, metrics: metrics, scheduler: scheduler, OrgID: orgID, IntegrationID: integrationID, Opts: opts}
}

func (t *OrderSyncTask) Name() string { return "sync_orders:" + t.IntegrationID }

func (t *OrderSyncTask) Run(ctx context.Context) error {
	dirty, err := t.ingest.SyncOrders(ctx, t.IntegrationID, t.Opts)
	if errors.Is(err, domain.ErrSyncInProgress) {
		t.scheduler.EnqueueIn(lockRetryDelay, t)
		return nil
	}
	if err != nil {
		return err
	}
	scheduleAggregation(t.scheduler, t.metrics, t.OrgID, dirty)
	return nil
}

// SpendSyncTask ingests daily ad spend for one integration.
type SpendSyncTask struct {
	ingest    *IngestService
	metrics   *MetricsService
	scheduler ports.Scheduler

	OrgID         string
	IntegrationID string
	Opts          SyncOptions
}

func NewSpendSyncTask(ingest *IngestService, metrics *MetricsService, scheduler ports.Scheduler, orgID, integrationID string, opts SyncOptions) *SpendSyncTask {
	return &SpendSyncTask{ingest: ingest, metrics: metrics, scheduler: scheduler, OrgID: orgID, IntegrationID: integrationID, Opts: opts}
}

func (t *SpendSyncTask) Name() string { return "sync_spend:" + t.IntegrationID }

func (t *SpendSyncTask) Run(ctx context.Context) error {
	dirty, err := t.ingest.SyncSpend(ctx, t.IntegrationID, t.Opts)
	if errors.Is(err, domain.ErrSyncInProgress) {
		t.scheduler.EnqueueIn(lockRetryDelay, t)
		return nil
	}
	if err != nil {
		return err
	}
	scheduleAggregation(t.scheduler, t.metrics, t.OrgID, dirty)
	return nil
}

// CampaignSyncTask refreshes the campaign list for one integration.
type CampaignSyncTask struct {
	ingest    *IngestService
	scheduler ports.Scheduler

	IntegrationID string
}

func NewCampaignSyncTask(ingest *IngestService, scheduler ports.Scheduler, integrationID string) *CampaignSyncTask {
	return &CampaignSyncTask{ingest: ingest, scheduler: scheduler, IntegrationID: integrationID}
}

func (t *CampaignSyncTask) Name() string { return "sync_campaigns:" + t.IntegrationID }

func (t *CampaignSyncTask) Run(ctx context.Context) error {
	err := t.ingest.SyncCampaigns(ctx, t.IntegrationID)
	if errors.Is(err, domain.ErrSyncInProgress) {
		t.scheduler.EnqueueIn(lockRetryDelay, t)
		return nil
	}
	return err
}

// AggregateTask recomputes one (org, day) snapshot.
type AggregateTask struct {
	metrics *MetricsService

	OrgID string
	Day   time.Time
}

func NewAggregateTask(metrics *MetricsService, orgID string, day time.Time) *AggregateTask {
	return &AggregateTask{metrics: metrics, OrgID: orgID, Day: domain.DayOf(day)}
}

func (t *AggregateTask) Name() string {
	return "aggregate:" + t.OrgID + ":" + domain.DateKey(t.Day)
}

func (t *AggregateTask) Run(ctx context.Context) error {
	_, err := t.metrics.ComputeDay(ctx, t.OrgID, t.Day)
	return err
}

// StateCleanupTask prunes expired OAuth state tokens.
type StateCleanupTask struct {
	oauth *OAuthService
}

func NewStateCleanupTask(oauth *OAuthService) *StateCleanupTask {
	return &StateCleanupTask{oauth: oauth}
}

func (t *StateCleanupTask) Name() string { return "oauth_state_cleanup" }

func (t *StateCleanupTask) Run(ctx context.Context) error {
	return t.oauth.CleanupStates(ctx)
}

func scheduleAggregation(scheduler ports.Scheduler, metrics *MetricsService, orgID string, days []time.Time) {
	for _, day := range days {
		scheduler.Enqueue(NewAggregateTask(metrics, orgID, day))
	}
}
