package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdSpend is one day of ad spend for one (org, platform, account). Unique on
// (OrgID, Date, Platform, AccountID).
type AdSpend struct {
	ID          string
	OrgID       string
	Date        time.Time
	Platform    Platform
	AccountID   string
	Spend       decimal.Decimal
	Currency    string
	Impressions int64
	Clicks      int64
	Conversions int
	SyncedAt    time.Time
}

// Recurrence is an expense recurrence policy.
type Recurrence string

const (
	RecurrenceOneTime Recurrence = "one_time"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceMonthly Recurrence = "monthly"
)

// Expense is an org-scoped ledger entry evaluated against target dates by the
// aggregator. Date is the anchor: the exact day for one-time expenses, the
// start day for recurring ones.
type Expense struct {
	ID         string
	OrgID      string
	Name       string
	Type       string
	Amount     decimal.Decimal
	Recurrence Recurrence
	Date       time.Time
	EndDate    *time.Time
	Active     bool
}

// AppliesOn reports whether the expense contributes to the given day.
// Monthly recurrence matches day-of-month exactly: an expense anchored on the
// 31st does not apply in months without a 31st.
func (e *Expense) AppliesOn(day time.Time) bool {
	if !e.Active {
		return false
	}
	day = DayOf(day)
	anchor := DayOf(e.Date)
	if e.EndDate != nil && day.After(DayOf(*e.EndDate)) {
		return false
	}
	switch e.Recurrence {
	case RecurrenceOneTime:
		return anchor.Equal(day)
	case RecurrenceDaily:
		return !anchor.After(day)
	case RecurrenceMonthly:
		return !anchor.After(day) && anchor.Day() == day.Day()
	}
	return false
}

// DataSourceCalculated marks snapshots produced by the aggregator, as opposed
// to externally supplied rows.
const DataSourceCalculated = "calculated"

// DailyMetrics is the materialized financial snapshot for one (org, day).
// Fully recomputable from orders, refunds, expenses and ad spend; treated as
// a cache and never hand-edited. Revenue reports net sales; every derived
// ratio uses the same basis.
type DailyMetrics struct {
	OrgID             string
	Date              time.Time
	GrossRevenue      decimal.Decimal
	TotalRefunds      decimal.Decimal
	Revenue           decimal.Decimal // net sales: gross revenue minus refunds
	OrdersCount       int
	AverageOrderValue decimal.Decimal
	NewCustomers      int
	TotalExpenses     decimal.Decimal
	ExpensesBreakdown map[string]float64
	TotalSpend        decimal.Decimal
	SpendByPlatform   map[string]float64
	RevenueBySource   map[string]float64
	NetProfit         decimal.Decimal
	ROAS              float64
	MER               float64
	NetMargin         float64
	NCPA              float64
	DataSource        string
	ComputedAt        time.Time
}
