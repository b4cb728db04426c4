package webhook_handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"profitpulse-sync-core/internal/application"
	"profitpulse-sync-core/internal/config"
	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configForTest() config.Config { return config.Config{} }

// Slim stubs covering just what the handlers touch.

type stubIntegrations struct {
	integration  *domain.Integration
	disconnected bool
}

func (s *stubIntegrations) Upsert(ctx context.Context, i *domain.Integration) error { return nil }
func (s *stubIntegrations) Update(ctx context.Context, i *domain.Integration) error { return nil }
func (s *stubIntegrations) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	return s.integration, nil
}
func (s *stubIntegrations) GetByOrgAndPlatform(ctx context.Context, orgID string, platform domain.Platform) (*domain.Integration, error) {
	return s.integration, nil
}
func (s *stubIntegrations) GetByAccountID(ctx context.Context, platform domain.Platform, accountID string) (*domain.Integration, error) {
	if s.integration != nil && s.integration.AccountID == accountID {
		return s.integration, nil
	}
	return nil, nil
}
func (s *stubIntegrations) ListConnected(ctx context.Context, orgID string) ([]*domain.Integration, error) {
	return nil, nil
}
func (s *stubIntegrations) Disconnect(ctx context.Context, orgID string, platform domain.Platform) error {
	s.disconnected = true
	if s.integration != nil {
		s.integration.Connected = false
	}
	return nil
}

type stubOrders struct {
	rows map[string]*domain.Order
}

func (s *stubOrders) Upsert(ctx context.Context, o *domain.Order) error {
	if s.rows == nil {
		s.rows = map[string]*domain.Order{}
	}
	cp := *o
	s.rows[o.ExternalID] = &cp
	return nil
}
func (s *stubOrders) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Order, error) {
	return nil, nil
}
func (s *stubOrders) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	return int64(len(s.rows)), nil
}

type stubRefunds struct {
	rows map[string]*domain.Refund
}

func (s *stubRefunds) Upsert(ctx context.Context, r *domain.Refund) error {
	if s.rows == nil {
		s.rows = map[string]*domain.Refund{}
	}
	cp := *r
	s.rows[r.ExternalID] = &cp
	return nil
}
func (s *stubRefunds) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Refund, error) {
	return nil, nil
}

type stubAdSpend struct{}

func (stubAdSpend) Upsert(ctx context.Context, s *domain.AdSpend) error { return nil }
func (stubAdSpend) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.AdSpend, error) {
	return nil, nil
}

type stubCampaigns struct{}

func (stubCampaigns) Upsert(ctx context.Context, c *domain.Campaign) error { return nil }
func (stubCampaigns) ListByOrg(ctx context.Context, orgID string) ([]*domain.Campaign, error) {
	return nil, nil
}

type stubExpenses struct{}

func (stubExpenses) Upsert(ctx context.Context, e *domain.Expense) error { return nil }
func (stubExpenses) ListActive(ctx context.Context, orgID string) ([]*domain.Expense, error) {
	return nil, nil
}

type stubMetrics struct{}

func (stubMetrics) Upsert(ctx context.Context, m *domain.DailyMetrics) error { return nil }
func (stubMetrics) Get(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error) {
	return nil, nil
}

type stubSyncLogs struct{}

func (stubSyncLogs) Create(ctx context.Context, l *domain.SyncLog) error { return nil }
func (stubSyncLogs) Update(ctx context.Context, l *domain.SyncLog) error { return nil }
func (stubSyncLogs) HasInProgress(ctx context.Context, orgID string) (bool, error) {
	return false, nil
}
func (stubSyncLogs) LatestCompleted(ctx context.Context, orgID string) (*domain.SyncLog, error) {
	return nil, nil
}

type stubLocker struct{}

func (stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (stubLocker) Release(ctx context.Context, key string) error { return nil }

type recordingScheduler struct {
	names []string
}

func (s *recordingScheduler) Enqueue(task ports.Task) { s.names = append(s.names, task.Name()) }
func (s *recordingScheduler) EnqueueIn(delay time.Duration, task ports.Task) {
	s.Enqueue(task)
}
func (s *recordingScheduler) RunNow(ctx context.Context, task ports.Task) error {
	return task.Run(ctx)
}

type handlerFixture struct {
	integrations *stubIntegrations
	orders       *stubOrders
	refunds      *stubRefunds
	scheduler    *recordingScheduler
	handler      *OrderHandler
}

func newHandlerFixture(integration *domain.Integration) *handlerFixture {
	f := &handlerFixture{
		integrations: &stubIntegrations{integration: integration},
		orders:       &stubOrders{},
		refunds:      &stubRefunds{},
		scheduler:    &recordingScheduler{},
	}
	ingest := application.NewIngestService(
		f.integrations, f.orders, f.refunds, stubAdSpend{}, stubCampaigns{}, stubSyncLogs{},
		nil, nil, nil, stubLocker{}, 30, zerolog.Nop(),
	)
	metrics := application.NewMetricsService(
		f.orders, f.refunds, stubAdSpend{}, stubExpenses{}, stubMetrics{}, zerolog.Nop(),
	)
	f.handler = NewOrderHandler(f.integrations, ingest, metrics, f.scheduler, zerolog.Nop())
	return f
}

func connectedShop() *domain.Integration {
	return &domain.Integration{
		ID: "int-1", OrgID: "org-1", Platform: domain.PlatformShopify,
		AccountID: "acme", Connected: true,
	}
}

func orderEvent(topic, shop string) *domain.WebhookEvent {
	payload := `{
		"id": 1001,
		"created_at": "2026-08-20T10:00:00Z",
		"total_price": "99.50",
		"currency": "USD",
		"financial_status": "paid",
		"customer": {"id": 7, "email": "a@b.c", "orders_count": 1},
		"refunds": [{
			"id": 9001,
			"created_at": "2026-08-22T10:00:00Z",
			"transactions": [{"amount": "10.00"}]
		}]
	}`
	return &domain.WebhookEvent{
		Topic:      topic,
		Shop:       shop,
		Payload:    json.RawMessage(payload),
		ReceivedAt: time.Now(),
	}
}

func TestOrderHandlerTopics(t *testing.T) {
	h := newHandlerFixture(nil).handler

	assert.True(t, h.CanHandle("orders/create"))
	assert.True(t, h.CanHandle("orders/updated"))
	assert.True(t, h.CanHandle("orders/paid"))
	assert.True(t, h.CanHandle("orders/cancelled"))
	assert.False(t, h.CanHandle("app/uninstalled"))
	assert.False(t, h.CanHandle("products/create"))
}

func TestOrderHandlerStoresOrderAndSchedulesAggregation(t *testing.T) {
	f := newHandlerFixture(connectedShop())

	err := f.handler.Handle(context.Background(), orderEvent("orders/create", "acme.myshopify.com"))
	require.NoError(t, err)

	order, ok := f.orders.rows["1001"]
	require.True(t, ok)
	assert.Equal(t, "org-1", order.OrgID)
	assert.Equal(t, domain.PlatformShopify, order.Source)
	assert.Equal(t, "99.50", order.TotalAmount.StringFixed(2))

	refund, ok := f.refunds.rows["9001"]
	require.True(t, ok)
	assert.Equal(t, "10.00", refund.Amount.StringFixed(2))

	// One aggregation per dirty day: order day and refund day.
	assert.Equal(t, []string{
		"aggregate:org-1:2026-08-20",
		"aggregate:org-1:2026-08-22",
	}, f.scheduler.names)
}

func TestOrderHandlerUnknownShop(t *testing.T) {
	f := newHandlerFixture(connectedShop())

	err := f.handler.Handle(context.Background(), orderEvent("orders/create", "other-shop.myshopify.com"))
	assert.ErrorIs(t, err, domain.ErrIntegrationNotFound)
	assert.Empty(t, f.orders.rows)
	assert.Empty(t, f.scheduler.names)
}

func TestOrderHandlerDisconnectedShop(t *testing.T) {
	i := connectedShop()
	i.Connected = false
	f := newHandlerFixture(i)

	err := f.handler.Handle(context.Background(), orderEvent("orders/create", "acme.myshopify.com"))
	assert.ErrorIs(t, err, domain.ErrIntegrationNotFound)
}

func TestDispatcherRoutesByTopic(t *testing.T) {
	f := newHandlerFixture(connectedShop())
	d := NewDispatcher(zerolog.Nop(), f.handler)

	require.NoError(t, d.Dispatch(context.Background(), orderEvent("orders/paid", "acme.myshopify.com")))
	assert.Len(t, f.orders.rows, 1)

	// Unclaimed topics are acknowledged without side effects.
	require.NoError(t, d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "products/create", Shop: "acme"}))
	assert.Len(t, f.orders.rows, 1)
}

func TestAppUninstalledHandlerDisconnects(t *testing.T) {
	integrations := &stubIntegrations{integration: connectedShop()}
	oauth := application.NewOAuthService(configForTest(), integrations, nil, nil, zerolog.Nop())
	h := NewAppUninstalledHandler(integrations, oauth, zerolog.Nop())

	require.True(t, h.CanHandle("app/uninstalled"))

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic: "app/uninstalled", Shop: "acme.myshopify.com",
	})
	require.NoError(t, err)
	assert.True(t, integrations.disconnected)
}

func TestAppUninstalledHandlerUnknownShopIsNoop(t *testing.T) {
	integrations := &stubIntegrations{}
	oauth := application.NewOAuthService(configForTest(), integrations, nil, nil, zerolog.Nop())
	h := NewAppUninstalledHandler(integrations, oauth, zerolog.Nop())

	err := h.Handle(context.Background(), &domain.WebhookEvent{
		Topic: "app/uninstalled", Shop: "ghost.myshopify.com",
	})
	require.NoError(t, err)
	assert.False(t, integrations.disconnected)
}
