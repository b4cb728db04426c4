package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpenseAppliesOnOneTime(t *testing.T) {
	e := &Expense{Amount: decimal.NewFromInt(100), Recurrence: RecurrenceOneTime, Date: day(2026, 8, 15), Active: true}

	assert.True(t, e.AppliesOn(day(2026, 8, 15)))
	assert.False(t, e.AppliesOn(day(2026, 8, 14)))
	assert.False(t, e.AppliesOn(day(2026, 8, 16)))
}

func TestExpenseAppliesOnDaily(t *testing.T) {
	end := day(2026, 8, 20)
	e := &Expense{Recurrence: RecurrenceDaily, Date: day(2026, 8, 10), EndDate: &end, Active: true}

	assert.False(t, e.AppliesOn(day(2026, 8, 9)))
	assert.True(t, e.AppliesOn(day(2026, 8, 10)))
	assert.True(t, e.AppliesOn(day(2026, 8, 20)))
	assert.False(t, e.AppliesOn(day(2026, 8, 21)))
}

func TestExpenseAppliesOnDailyOpenEnded(t *testing.T) {
	e := &Expense{Recurrence: RecurrenceDaily, Date: day(2026, 1, 1), Active: true}

	assert.True(t, e.AppliesOn(day(2027, 6, 30)))
}

func TestExpenseAppliesOnMonthly(t *testing.T) {
	e := &Expense{Recurrence: RecurrenceMonthly, Date: day(2026, 1, 15), Active: true}

	assert.True(t, e.AppliesOn(day(2026, 2, 15)))
	assert.True(t, e.AppliesOn(day(2026, 8, 15)))
	assert.False(t, e.AppliesOn(day(2026, 8, 14)))
	assert.False(t, e.AppliesOn(day(2025, 12, 15)))
}

// A monthly expense anchored on the 31st only applies in months that have a
// 31st; it does not slide to the 30th.
func TestExpenseAppliesOnMonthlyDay31(t *testing.T) {
	e := &Expense{Recurrence: RecurrenceMonthly, Date: day(2026, 1, 31), Active: true}

	assert.True(t, e.AppliesOn(day(2026, 3, 31)))
	assert.False(t, e.AppliesOn(day(2026, 4, 30)))
	assert.False(t, e.AppliesOn(day(2026, 2, 28)))
}

func TestExpenseInactiveNeverApplies(t *testing.T) {
	e := &Expense{Recurrence: RecurrenceDaily, Date: day(2026, 1, 1), Active: false}

	assert.False(t, e.AppliesOn(day(2026, 8, 15)))
}

func TestOrderStatusCountsTowardRevenue(t *testing.T) {
	assert.True(t, OrderStatusPaid.CountsTowardRevenue())
	assert.True(t, OrderStatusPending.CountsTowardRevenue())
	assert.True(t, OrderStatusCompleted.CountsTowardRevenue())

	assert.False(t, OrderStatusCancelled.CountsTowardRevenue())
	assert.False(t, OrderStatus("canceled").CountsTowardRevenue())
	assert.False(t, OrderStatusRefunded.CountsTowardRevenue())
	assert.False(t, OrderStatusVoided.CountsTowardRevenue())
	assert.False(t, OrderStatusFailed.CountsTowardRevenue())
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("GST", 4*3600)
	// 01:30 on Aug 21 in GST is still Aug 20 in UTC.
	ts := time.Date(2026, 8, 21, 1, 30, 0, 0, loc)

	assert.Equal(t, day(2026, 8, 20), DayOf(ts))
	assert.Equal(t, "2026-08-20", DateKey(ts))
}
