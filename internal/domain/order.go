package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the closed vocabulary platform statuses are mapped into.
type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusVoided    OrderStatus = "voided"
	OrderStatusFailed    OrderStatus = "failed"
)

// excludedStatuses are terminal-negative states that never count toward
// revenue. "canceled" covers sources that use the US spelling.
var excludedStatuses = map[string]struct{}{
	"cancelled": {},
	"canceled":  {},
	"refunded":  {},
	"voided":    {},
	"failed":    {},
}

// CountsTowardRevenue reports whether orders in this status contribute to
// gross revenue.
func (s OrderStatus) CountsTowardRevenue() bool {
	_, excluded := excludedStatuses[string(s)]
	return !excluded
}

// Order is the canonical commerce transaction. Unique on
// (OrgID, ExternalID, Source). Raw holds the unmodified provider payload so
// refunds can be re-derived later.
type Order struct {
	ID            string
	OrgID         string
	ExternalID    string
	Source        Platform
	StoreID       string
	OrderDate     time.Time
	TotalAmount   decimal.Decimal
	Currency      string
	Status        OrderStatus
	CustomerID    string
	CustomerEmail string
	// IsNewCustomer mirrors the platform's own lifetime-order-count signal at
	// fetch time; it is never recomputed locally and can drift when history
	// is backfilled out of order. Nil when the platform reported no customer.
	IsNewCustomer *bool
	Raw           json.RawMessage
	SyncedAt      time.Time
}

// Refund is derived from an Order's stored raw payload. Unique on
// (OrgID, ExternalID); always linked to its parent order.
type Refund struct {
	ID              string
	OrgID           string
	ExternalID      string
	OrderExternalID string
	Source          Platform
	RefundDate      time.Time
	Amount          decimal.Decimal
	Currency        string
	Raw             json.RawMessage
}
