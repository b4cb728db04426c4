package application

import (
	"context"
	"fmt"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/monitoring"
	"profitpulse-sync-core/internal/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MetricsService recomputes daily financial snapshots from stored facts.
// ComputeDay is a full recomputation, never an increment: running it twice
// over unchanged inputs produces identical output, and stale snapshots are
// simply overwritten.
type MetricsService struct {
	orders   ports.OrderRepository
	refunds  ports.RefundRepository
	adspend  ports.AdSpendRepository
	expenses ports.ExpenseRepository
	metrics  ports.MetricsRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMetricsService creates a new metrics service
func NewMetricsService(
	orders ports.OrderRepository,
	refunds ports.RefundRepository,
	adspend ports.AdSpendRepository,
	expenses ports.ExpenseRepository,
	metrics ports.MetricsRepository,
	logger zerolog.Logger,
) *MetricsService {
	return &MetricsService{
		orders:   orders,
		refunds:  refunds,
		adspend:  adspend,
		expenses: expenses,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ComputeDay recomputes and stores the snapshot for one (org, day).
//
// Revenue semantics: gross revenue counts orders placed that day whose status
// counts toward revenue; refunds subtract on the day the refund was issued,
// not the day of the original order. Every derived ratio uses net sales.
// Ratios with a zero denominator report zero.
func (s *MetricsService) ComputeDay(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error) {
	start := s.now()
	defer func() {
		monitoring.AggregationDuration.Observe(time.Since(start).Seconds())
	}()

	day = domain.DayOf(day)

	orders, err := s.orders.ListByDate(ctx, orgID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	refunds, err := s.refunds.ListByDate(ctx, orgID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load refunds: %w", err)
	}
	spendRows, err := s.adspend.ListByDate(ctx, orgID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load ad spend: %w", err)
	}
	expenses, err := s.expenses.ListActive(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	m := &domain.DailyMetrics{
		OrgID:             orgID,
		Date:              day,
		ExpensesBreakdown: map[string]float64{},
		SpendByPlatform:   map[string]float64{},
		RevenueBySource:   map[string]float64{},
		DataSource:        domain.DataSourceCalculated,
		ComputedAt:        s.now(),
	}

	gross := decimal.Zero
	for _, o := range orders {
		if !o.Status.CountsTowardRevenue() {
			continue
		}
		gross = gross.Add(o.TotalAmount)
		m.OrdersCount++
		if o.IsNewCustomer != nil && *o.IsNewCustomer {
			m.NewCustomers++
		}
		source := o.Source.String()
		m.RevenueBySource[source] += o.TotalAmount.InexactFloat64()
	}
	m.GrossRevenue = gross

	totalRefunds := decimal.Zero
	for _, r := range refunds {
		totalRefunds = totalRefunds.Add(r.Amount)
	}
	m.TotalRefunds = totalRefunds
	m.Revenue = gross.Sub(totalRefunds)

	totalSpend := decimal.Zero
	for _, row := range spendRows {
		totalSpend = totalSpend.Add(row.Spend)
		m.SpendByPlatform[row.Platform.String()] += row.Spend.InexactFloat64()
	}
	m.TotalSpend = totalSpend

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		if !e.AppliesOn(day) {
			continue
		}
		totalExpenses = totalExpenses.Add(e.Amount)
		key := e.Type
		if key == "" {
			key = "other"
		}
		m.ExpensesBreakdown[key] += e.Amount.InexactFloat64()
	}
	m.TotalExpenses = totalExpenses

	if m.OrdersCount > 0 {
		m.AverageOrderValue = m.Revenue.Div(decimal.NewFromInt(int64(m.OrdersCount))).Round(2)
	} else {
		m.AverageOrderValue = decimal.Zero
	}

	m.NetProfit = m.Revenue.Sub(totalSpend).Sub(totalExpenses)

	net := m.Revenue.InexactFloat64()
	spend := totalSpend.InexactFloat64()
	if spend > 0 {
		m.ROAS = net / spend
	}
	if net > 0 {
		m.MER = spend / net * 100
		m.NetMargin = m.NetProfit.InexactFloat64() / net * 100
	}
	if m.NewCustomers > 0 {
		m.NCPA = spend / float64(m.NewCustomers)
	}

	if err := s.metrics.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store daily metrics: %w", err)
	}

	s.logger.Debug().
		Str("orgId", orgID).
		Str("date", domain.DateKey(day)).
		Int("orders", m.OrdersCount).
		Str("revenue", m.Revenue.String()).
		Msg("Recomputed daily metrics")

	return m, nil
}

// ComputeRange recomputes every day in [start, end] inclusive.
func (s *MetricsService) ComputeRange(ctx context.Context, orgID string, start, end time.Time) error {
	for day := domain.DayOf(start); !day.After(domain.DayOf(end)); day = day.Add(24 * time.Hour) {
		if _, err := s.ComputeDay(ctx, orgID, day); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored snapshot for a day, or nil when none exists.
func (s *MetricsService) Get(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error) {
	return s.metrics.Get(ctx, orgID, day)
}
