package application

import (
	"context"
	"sync"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// In-memory ports for service tests. Each fake keys records exactly the way
// the Mongo implementations do, so upsert idempotence is observable.

type memIntegrations struct {
	mu   sync.Mutex
	byID map[string]*domain.Integration
}

func newMemIntegrations() *memIntegrations {
	return &memIntegrations{byID: map[string]*domain.Integration{}}
}

func (m *memIntegrations) Upsert(ctx context.Context, i *domain.Integration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.byID {
		if existing.OrgID == i.OrgID && existing.Platform == i.Platform {
			cp := *i
			cp.ID = id
			m.byID[id] = &cp
			return nil
		}
	}
	cp := *i
	m.byID[i.ID] = &cp
	return nil
}

func (m *memIntegrations) Update(ctx context.Context, i *domain.Integration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[i.ID]; !ok {
		return domain.ErrIntegrationNotFound
	}
	cp := *i
	m.byID[i.ID] = &cp
	return nil
}

func (m *memIntegrations) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.byID[id]; ok {
		cp := *i
		return &cp, nil
	}
	return nil, nil
}

func (m *memIntegrations) GetByOrgAndPlatform(ctx context.Context, orgID string, platform domain.Platform) (*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.byID {
		if i.OrgID == orgID && i.Platform == platform {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memIntegrations) GetByAccountID(ctx context.Context, platform domain.Platform, accountID string) (*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.byID {
		if i.Platform == platform && i.AccountID == accountID {
			cp := *i
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memIntegrations) ListConnected(ctx context.Context, orgID string) ([]*domain.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Integration
	for _, i := range m.byID {
		if i.OrgID == orgID && i.Connected {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memIntegrations) Disconnect(ctx context.Context, orgID string, platform domain.Platform) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.byID {
		if i.OrgID == orgID && i.Platform == platform {
			i.Connected = false
			i.AccessToken = ""
			i.RefreshToken = ""
			return nil
		}
	}
	return domain.ErrIntegrationNotFound
}

type memStates struct {
	mu      sync.Mutex
	byToken map[string]*domain.OAuthState
}

func newMemStates() *memStates {
	return &memStates{byToken: map[string]*domain.OAuthState{}}
}

func (m *memStates) Create(ctx context.Context, s *domain.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byToken[s.State] = &cp
	return nil
}

func (m *memStates) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byToken[state]
	if !ok {
		return nil, domain.ErrInvalidOAuthState
	}
	delete(m.byToken, state)
	return s, nil
}

func (m *memStates) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.byToken {
		if s.Expired(now) {
			delete(m.byToken, k)
			n++
		}
	}
	return n, nil
}

type orderKey struct{ org, ext, src string }

type memOrders struct {
	mu   sync.Mutex
	rows map[orderKey]*domain.Order
}

func newMemOrders() *memOrders { return &memOrders{rows: map[orderKey]*domain.Order{}} }

func (m *memOrders) Upsert(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.rows[orderKey{o.OrgID, o.ExternalID, string(o.Source)}] = &cp
	return nil
}

func (m *memOrders) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.rows {
		if o.OrgID == orgID && domain.DayOf(o.OrderDate).Equal(domain.DayOf(day)) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.rows {
		if o.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

type refundKey struct{ org, ext string }

type memRefunds struct {
	mu   sync.Mutex
	rows map[refundKey]*domain.Refund
}

func newMemRefunds() *memRefunds { return &memRefunds{rows: map[refundKey]*domain.Refund{}} }

func (m *memRefunds) Upsert(ctx context.Context, r *domain.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rows[refundKey{r.OrgID, r.ExternalID}] = &cp
	return nil
}

func (m *memRefunds) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Refund
	for _, r := range m.rows {
		if r.OrgID == orgID && domain.DayOf(r.RefundDate).Equal(domain.DayOf(day)) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type spendKey struct{ org, date, platform, account string }

type memAdSpend struct {
	mu   sync.Mutex
	rows map[spendKey]*domain.AdSpend
}

func newMemAdSpend() *memAdSpend { return &memAdSpend{rows: map[spendKey]*domain.AdSpend{}} }

func (m *memAdSpend) Upsert(ctx context.Context, s *domain.AdSpend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.rows[spendKey{s.OrgID, domain.DateKey(s.Date), string(s.Platform), s.AccountID}] = &cp
	return nil
}

func (m *memAdSpend) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.AdSpend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AdSpend
	for _, s := range m.rows {
		if s.OrgID == orgID && domain.DayOf(s.Date).Equal(domain.DayOf(day)) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type campaignKey struct{ org, ext string }

type memCampaigns struct {
	mu   sync.Mutex
	rows map[campaignKey]*domain.Campaign
}

func newMemCampaigns() *memCampaigns { return &memCampaigns{rows: map[campaignKey]*domain.Campaign{}} }

func (m *memCampaigns) Upsert(ctx context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.rows[campaignKey{c.OrgID, c.ExternalID}] = &cp
	return nil
}

func (m *memCampaigns) ListByOrg(ctx context.Context, orgID string) ([]*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Campaign
	for _, c := range m.rows {
		if c.OrgID == orgID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memExpenses struct {
	mu   sync.Mutex
	rows map[string]*domain.Expense
}

func newMemExpenses() *memExpenses { return &memExpenses{rows: map[string]*domain.Expense{}} }

func (m *memExpenses) Upsert(ctx context.Context, e *domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memExpenses) ListActive(ctx context.Context, orgID string) ([]*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Expense
	for _, e := range m.rows {
		if e.OrgID == orgID && e.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type metricsKey struct{ org, date string }

type memMetrics struct {
	mu   sync.Mutex
	rows map[metricsKey]*domain.DailyMetrics
}

func newMemMetrics() *memMetrics { return &memMetrics{rows: map[metricsKey]*domain.DailyMetrics{}} }

func (m *memMetrics) Upsert(ctx context.Context, d *domain.DailyMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.rows[metricsKey{d.OrgID, domain.DateKey(d.Date)}] = &cp
	return nil
}

func (m *memMetrics) Get(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.rows[metricsKey{orgID, domain.DateKey(day)}]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

type memSyncLogs struct {
	mu   sync.Mutex
	rows []*domain.SyncLog
}

func newMemSyncLogs() *memSyncLogs { return &memSyncLogs{} }

func (m *memSyncLogs) Create(ctx context.Context, l *domain.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memSyncLogs) Update(ctx context.Context, l *domain.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.rows {
		if existing.ID == l.ID {
			cp := *l
			m.rows[i] = &cp
			return nil
		}
	}
	return nil
}

func (m *memSyncLogs) HasInProgress(ctx context.Context, orgID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.rows {
		if l.OrgID == orgID && (l.Status == domain.SyncStatusPending || l.Status == domain.SyncStatusInProgress) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSyncLogs) LatestCompleted(ctx context.Context, orgID string) (*domain.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.SyncLog
	for _, l := range m.rows {
		if l.OrgID != orgID || l.CompletedAt == nil {
			continue
		}
		if latest == nil || l.CompletedAt.After(*latest.CompletedAt) {
			latest = l
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (m *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *memLocker) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}

// memScheduler records enqueued tasks without running them.
type memScheduler struct {
	mu    sync.Mutex
	tasks []ports.Task
}

func newMemScheduler() *memScheduler { return &memScheduler{} }

func (m *memScheduler) Enqueue(task ports.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

func (m *memScheduler) EnqueueIn(delay time.Duration, task ports.Task) { m.Enqueue(task) }

func (m *memScheduler) RunNow(ctx context.Context, task ports.Task) error {
	return task.Run(ctx)
}

func (m *memScheduler) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = t.Name()
	}
	return out
}

// fakeClient is a scriptable platform client. Errs are consumed one per
// fetch call before records are returned.
type fakeClient struct {
	platform  domain.Platform
	orders    []domain.OrderRecord
	spend     []domain.SpendRecord
	campaigns []domain.CampaignRecord

	mu          sync.Mutex
	errs        []error
	tokens      []string
	orderSince  []time.Time
	spendRanges [][2]time.Time
}

func (f *fakeClient) Platform() domain.Platform { return f.platform }

func (f *fakeClient) nextErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeClient) FetchOrders(ctx context.Context, since time.Time) ([]domain.OrderRecord, error) {
	f.mu.Lock()
	f.orderSince = append(f.orderSince, since)
	f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.orders, nil
}

func (f *fakeClient) FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error) {
	f.mu.Lock()
	f.spendRanges = append(f.spendRanges, [2]time.Time{start, end})
	f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.spend, nil
}

func (f *fakeClient) FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error) {
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	return f.campaigns, nil
}

// fakeFactory hands out the same client and records the token used.
type fakeFactory struct {
	client *fakeClient
	err    error
}

func (f *fakeFactory) ClientFor(i *domain.Integration, accessToken string) (ports.PlatformClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.client.mu.Lock()
	f.client.tokens = append(f.client.tokens, accessToken)
	f.client.mu.Unlock()
	return f.client, nil
}

// passVault is a no-op vault for tests.
type passVault struct{}

func (passVault) Encrypt(s string) (string, error) { return s, nil }
func (passVault) Decrypt(s string) (string, error) { return s, nil }
