package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type rawRefund struct {
	ID           json.Number `json:"id"`
	CreatedAt    string      `json:"created_at"`
	Transactions []struct {
		Amount string `json:"amount"`
	} `json:"transactions"`
	RefundLineItems []struct {
		Subtotal json.Number `json:"subtotal"`
	} `json:"refund_line_items"`
}

type rawOrderRefunds struct {
	Refunds []json.RawMessage `json:"refunds"`
}

// ExtractRefunds derives refund entities from an order's stored raw payload.
// Amounts come from the refund's transactions; refund_line_items subtotals
// are the fallback when no transactions are present. Refunds that net to zero
// are dropped. A refund with an unparseable timestamp inherits the order
// date.
func ExtractRefunds(o *Order) []*Refund {
	if len(o.Raw) == 0 {
		return nil
	}
	var raw rawOrderRefunds
	if err := json.Unmarshal(o.Raw, &raw); err != nil {
		return nil
	}

	var refunds []*Refund
	for _, rr := range raw.Refunds {
		var r rawRefund
		if err := json.Unmarshal(rr, &r); err != nil {
			continue
		}
		if r.ID.String() == "" {
			continue
		}

		refundDate := o.OrderDate
		if r.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
				refundDate = t
			}
		}

		amount := decimal.Zero
		for _, txn := range r.Transactions {
			if a, err := decimal.NewFromString(txn.Amount); err == nil {
				amount = amount.Add(a)
			}
		}
		if amount.IsZero() {
			for _, item := range r.RefundLineItems {
				if a, err := decimal.NewFromString(item.Subtotal.String()); err == nil {
					amount = amount.Add(a)
				}
			}
		}
		if amount.IsZero() {
			continue
		}

		refunds = append(refunds, &Refund{
			OrgID:           o.OrgID,
			ExternalID:      r.ID.String(),
			OrderExternalID: o.ExternalID,
			Source:          o.Source,
			RefundDate:      refundDate,
			Amount:          amount,
			Currency:        o.Currency,
			Raw:             rr,
		})
	}
	return refunds
}
