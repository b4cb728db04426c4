package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical records are the platform-agnostic shapes platform clients and the
// webhook adapter both produce. Poll and webhook paths must emit identical
// records for the same source object, so all normalization funnels through
// these types before anything is persisted.

// OrderRecord is a normalized commerce order.
type OrderRecord struct {
	ExternalID    string
	StoreID       string
	OrderDate     time.Time
	TotalAmount   decimal.Decimal
	Currency      string
	Status        OrderStatus
	CustomerID    string
	CustomerEmail string
	IsNewCustomer *bool
	Raw           json.RawMessage
}

// SpendRecord is one day of ad spend for one external account.
type SpendRecord struct {
	Date        time.Time
	Platform    Platform
	AccountID   string
	Spend       decimal.Decimal
	Currency    string
	Impressions int64
	Clicks      int64
	Conversions int
}

// CampaignRecord is a normalized ad campaign.
type CampaignRecord struct {
	ExternalID  string
	Name        string
	Status      CampaignStatus
	Spend       decimal.Decimal
	Impressions int64
	Clicks      int64
	Conversions int
}
