package application

import (
	"context"
	"testing"
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricsFixture struct {
	svc      *MetricsService
	orders   *memOrders
	refunds  *memRefunds
	adspend  *memAdSpend
	expenses *memExpenses
	metrics  *memMetrics
}

func newMetricsFixture(now time.Time) *metricsFixture {
	f := &metricsFixture{
		orders:   newMemOrders(),
		refunds:  newMemRefunds(),
		adspend:  newMemAdSpend(),
		expenses: newMemExpenses(),
		metrics:  newMemMetrics(),
	}
	f.svc = NewMetricsService(f.orders, f.refunds, f.adspend, f.expenses, f.metrics, zerolog.Nop())
	f.svc.now = func() time.Time { return now }
	return f
}

func paidOrder(org, ext string, day time.Time, amount string, newCustomer bool) *domain.Order {
	nc := newCustomer
	return &domain.Order{
		OrgID:         org,
		ExternalID:    ext,
		Source:        domain.PlatformShopify,
		OrderDate:     day,
		TotalAmount:   decimal.RequireFromString(amount),
		Currency:      "USD",
		Status:        domain.OrderStatusPaid,
		IsNewCustomer: &nc,
	}
}

func TestComputeDayNetBasisRatios(t *testing.T) {
	target := day(2026, 8, 20)
	f := newMetricsFixture(day(2026, 8, 21))
	ctx := context.Background()

	require.NoError(t, f.orders.Upsert(ctx, paidOrder("org-1", "o1", target, "120.00", true)))
	require.NoError(t, f.orders.Upsert(ctx, paidOrder("org-1", "o2", target, "80.00", false)))
	require.NoError(t, f.refunds.Upsert(ctx, &domain.Refund{
		OrgID: "org-1", ExternalID: "r1", RefundDate: target,
		Amount: decimal.RequireFromString("50.00"), Currency: "USD",
	}))
	require.NoError(t, f.adspend.Upsert(ctx, &domain.AdSpend{
		OrgID: "org-1", Date: target, Platform: domain.PlatformMeta,
		AccountID: "act_1", Spend: decimal.RequireFromString("50.00"),
	}))
	require.NoError(t, f.expenses.Upsert(ctx, &domain.Expense{
		ID: "e1", OrgID: "org-1", Type: "software",
		Amount: decimal.RequireFromString("20.00"), Recurrence: domain.RecurrenceOneTime,
		Date: target, Active: true,
	}))

	m, err := f.svc.ComputeDay(ctx, "org-1", target)
	require.NoError(t, err)

	assert.Equal(t, "200.00", m.GrossRevenue.StringFixed(2))
	assert.Equal(t, "50.00", m.TotalRefunds.StringFixed(2))
	assert.Equal(t, "150.00", m.Revenue.StringFixed(2))
	assert.Equal(t, 2, m.OrdersCount)
	assert.Equal(t, 1, m.NewCustomers)

	// Every ratio is net of refunds: 150 net, 50 spend, 20 expenses.
	assert.Equal(t, "75.00", m.AverageOrderValue.StringFixed(2))
	assert.Equal(t, "80.00", m.NetProfit.StringFixed(2))
	assert.InDelta(t, 3.0, m.ROAS, 1e-9)
	assert.InDelta(t, 50.0/150.0*100, m.MER, 1e-9)
	assert.InDelta(t, 80.0/150.0*100, m.NetMargin, 1e-9)
	assert.InDelta(t, 50.0, m.NCPA, 1e-9)

	assert.InDelta(t, 200.0, m.RevenueBySource["shopify"], 1e-9)
	assert.InDelta(t, 50.0, m.SpendByPlatform["meta"], 1e-9)
	assert.InDelta(t, 20.0, m.ExpensesBreakdown["software"], 1e-9)
}

func TestComputeDayExcludesNonRevenueOrders(t *testing.T) {
	target := day(2026, 8, 20)
	f := newMetricsFixture(day(2026, 8, 21))
	ctx := context.Background()

	require.NoError(t, f.orders.Upsert(ctx, paidOrder("org-1", "o1", target, "100.00", false)))
	cancelled := paidOrder("org-1", "o2", target, "999.00", true)
	cancelled.Status = domain.OrderStatusCancelled
	require.NoError(t, f.orders.Upsert(ctx, cancelled))

	m, err := f.svc.ComputeDay(ctx, "org-1", target)
	require.NoError(t, err)

	assert.Equal(t, 1, m.OrdersCount)
	assert.Equal(t, 0, m.NewCustomers)
	assert.Equal(t, "100.00", m.GrossRevenue.StringFixed(2))
}

func TestComputeDayZeroDenominators(t *testing.T) {
	target := day(2026, 8, 20)
	f := newMetricsFixture(day(2026, 8, 21))

	m, err := f.svc.ComputeDay(context.Background(), "org-1", target)
	require.NoError(t, err)

	assert.Equal(t, 0, m.OrdersCount)
	assert.True(t, m.AverageOrderValue.IsZero())
	assert.Zero(t, m.ROAS)
	assert.Zero(t, m.MER)
	assert.Zero(t, m.NetMargin)
	assert.Zero(t, m.NCPA)
	assert.True(t, m.NetProfit.IsZero())
}

// A refund issued days after the order subtracts on the refund day, which can
// push that day's net revenue negative.
func TestComputeDayRefundOnLaterDay(t *testing.T) {
	orderDay := day(2026, 8, 18)
	refundDay := day(2026, 8, 21)
	f := newMetricsFixture(day(2026, 8, 22))
	ctx := context.Background()

	require.NoError(t, f.orders.Upsert(ctx, paidOrder("org-1", "o1", orderDay, "100.00", false)))
	require.NoError(t, f.refunds.Upsert(ctx, &domain.Refund{
		OrgID: "org-1", ExternalID: "r1", RefundDate: refundDay,
		Amount: decimal.RequireFromString("40.00"),
	}))

	onOrderDay, err := f.svc.ComputeDay(ctx, "org-1", orderDay)
	require.NoError(t, err)
	assert.Equal(t, "100.00", onOrderDay.Revenue.StringFixed(2))
	assert.True(t, onOrderDay.TotalRefunds.IsZero())

	onRefundDay, err := f.svc.ComputeDay(ctx, "org-1", refundDay)
	require.NoError(t, err)
	assert.Equal(t, 0, onRefundDay.OrdersCount)
	assert.Equal(t, "-40.00", onRefundDay.Revenue.StringFixed(2))
	// No orders, so AOV stays zero even with refund activity.
	assert.True(t, onRefundDay.AverageOrderValue.IsZero())
}

func TestComputeDayUntypedExpenseBucketsAsOther(t *testing.T) {
	target := day(2026, 8, 20)
	f := newMetricsFixture(day(2026, 8, 21))
	ctx := context.Background()

	require.NoError(t, f.expenses.Upsert(ctx, &domain.Expense{
		ID: "e1", OrgID: "org-1", Amount: decimal.RequireFromString("15.00"),
		Recurrence: domain.RecurrenceDaily, Date: day(2026, 1, 1), Active: true,
	}))

	m, err := f.svc.ComputeDay(ctx, "org-1", target)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, m.ExpensesBreakdown["other"], 1e-9)
	assert.Equal(t, "15.00", m.TotalExpenses.StringFixed(2))
	assert.Equal(t, "-15.00", m.NetProfit.StringFixed(2))
}

func TestComputeDayIsDeterministic(t *testing.T) {
	target := day(2026, 8, 20)
	f := newMetricsFixture(day(2026, 8, 21))
	ctx := context.Background()

	require.NoError(t, f.orders.Upsert(ctx, paidOrder("org-1", "o1", target, "60.00", true)))

	first, err := f.svc.ComputeDay(ctx, "org-1", target)
	require.NoError(t, err)
	second, err := f.svc.ComputeDay(ctx, "org-1", target)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	stored, err := f.svc.Get(ctx, "org-1", target)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "60.00", stored.Revenue.StringFixed(2))
}

func TestComputeRangeCoversInclusiveWindow(t *testing.T) {
	f := newMetricsFixture(day(2026, 8, 22))
	ctx := context.Background()

	err := f.svc.ComputeRange(ctx, "org-1", day(2026, 8, 18), day(2026, 8, 20))
	require.NoError(t, err)

	for d := 18; d <= 20; d++ {
		m, err := f.svc.Get(ctx, "org-1", day(2026, 8, d))
		require.NoError(t, err)
		assert.NotNil(t, m, "missing snapshot for day %d", d)
	}
	m, err := f.svc.Get(ctx, "org-1", day(2026, 8, 21))
	require.NoError(t, err)
	assert.Nil(t, m)
}
