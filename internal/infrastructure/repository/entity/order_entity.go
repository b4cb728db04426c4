package entity

import (
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/shopspring/decimal"
)

// Money fields are stored as decimal strings so amounts round-trip exactly;
// BSON doubles would accumulate representation error on currency values.

// MongoOrderDoc represents a canonical order in MongoDB
type MongoOrderDoc struct {
	ID            string    `bson:"_id,omitempty"`
	OrgID         string    `bson:"orgId"`
	ExternalID    string    `bson:"externalId"`
	Source        string    `bson:"source"`
	StoreID       string    `bson:"storeId"`
	OrderDate     time.Time `bson:"orderDate"`
	TotalAmount   string    `bson:"totalAmount"`
	Currency      string    `bson:"currency"`
	Status        string    `bson:"status"`
	CustomerID    string    `bson:"customerId,omitempty"`
	CustomerEmail string    `bson:"customerEmail,omitempty"`
	IsNewCustomer *bool     `bson:"isNewCustomer,omitempty"`
	Raw           []byte    `bson:"raw,omitempty"`
	SyncedAt      time.Time `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	return &domain.Order{
		ID:            d.ID,
		OrgID:         d.OrgID,
		ExternalID:    d.ExternalID,
		Source:        domain.Platform(d.Source),
		StoreID:       d.StoreID,
		OrderDate:     d.OrderDate,
		TotalAmount:   parseAmount(d.TotalAmount),
		Currency:      d.Currency,
		Status:        domain.OrderStatus(d.Status),
		CustomerID:    d.CustomerID,
		CustomerEmail: d.CustomerEmail,
		IsNewCustomer: d.IsNewCustomer,
		Raw:           d.Raw,
		SyncedAt:      d.SyncedAt,
	}
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	return &MongoOrderDoc{
		ID:            order.ID,
		OrgID:         order.OrgID,
		ExternalID:    order.ExternalID,
		Source:        string(order.Source),
		StoreID:       order.StoreID,
		OrderDate:     order.OrderDate,
		TotalAmount:   order.TotalAmount.String(),
		Currency:      order.Currency,
		Status:        string(order.Status),
		CustomerID:    order.CustomerID,
		CustomerEmail: order.CustomerEmail,
		IsNewCustomer: order.IsNewCustomer,
		Raw:           order.Raw,
		SyncedAt:      order.SyncedAt,
	}
}

// MongoRefundDoc represents a refund in MongoDB
type MongoRefundDoc struct {
	ID              string    `bson:"_id,omitempty"`
	OrgID           string    `bson:"orgId"`
	ExternalID      string    `bson:"externalId"`
	OrderExternalID string    `bson:"orderExternalId"`
	Source          string    `bson:"source"`
	RefundDate      time.Time `bson:"refundDate"`
	Amount          string    `bson:"amount"`
	Currency        string    `bson:"currency"`
	Raw             []byte    `bson:"raw,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoRefundDoc) ToDomain() *domain.Refund {
	return &domain.Refund{
		ID:              d.ID,
		OrgID:           d.OrgID,
		ExternalID:      d.ExternalID,
		OrderExternalID: d.OrderExternalID,
		Source:          domain.Platform(d.Source),
		RefundDate:      d.RefundDate,
		Amount:          parseAmount(d.Amount),
		Currency:        d.Currency,
		Raw:             d.Raw,
	}
}

// MongoRefundDocFromDomain converts a domain entity to a MongoDB document
func MongoRefundDocFromDomain(refund *domain.Refund) *MongoRefundDoc {
	return &MongoRefundDoc{
		ID:              refund.ID,
		OrgID:           refund.OrgID,
		ExternalID:      refund.ExternalID,
		OrderExternalID: refund.OrderExternalID,
		Source:          string(refund.Source),
		RefundDate:      refund.RefundDate,
		Amount:          refund.Amount.String(),
		Currency:        refund.Currency,
		Raw:             refund.Raw,
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
