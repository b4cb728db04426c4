package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	shopifyAPIVersion = "2024-01"
	shopifyPageSize   = 250
)

// shopifyStatusMap maps Shopify financial_status values into the normalized
// order vocabulary. Unmapped values fall back to pending so an unknown status
// is counted rather than silently dropped.
var shopifyStatusMap = map[string]domain.OrderStatus{
	"paid":               domain.OrderStatusPaid,
	"pending":            domain.OrderStatusPending,
	"authorized":         domain.OrderStatusPending,
	"partially_paid":     domain.OrderStatusPending,
	"partially_refunded": domain.OrderStatusCompleted,
	"refunded":           domain.OrderStatusRefunded,
	"voided":             domain.OrderStatusVoided,
}

// ShopifyClient reads orders from the Shopify Admin REST API. Pagination
// follows the Link response header; the cursor URL Shopify hands back is used
// verbatim because page_info cursors reject repeated filter parameters.
type ShopifyClient struct {
	shop        string
	baseURL     string
	accessToken string
	t           *transport
	logger      zerolog.Logger
}

func NewShopifyClient(shop, accessToken string, t *transport, logger zerolog.Logger) *ShopifyClient {
	handle := NormalizeShopDomain(shop)
	return &ShopifyClient{
		shop:        handle,
		baseURL:     fmt.Sprintf("https://%s.myshopify.com", handle),
		accessToken: accessToken,
		t:           t,
		logger:      logger.With().Str("platform", "shopify").Str("shop", handle).Logger(),
	}
}

func (c *ShopifyClient) Platform() domain.Platform { return domain.PlatformShopify }

// FetchCampaigns is a no-op: Shopify is an order source, not an ad platform.
func (c *ShopifyClient) FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error) {
	return nil, nil
}

func (c *ShopifyClient) FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error) {
	return nil, nil
}

// FetchOrders returns every order created at or after since, across all
// pages. Orders of any status are fetched; status filtering happens at
// aggregation time so cancellations still overwrite stale local copies.
func (c *ShopifyClient) FetchOrders(ctx context.Context, since time.Time) ([]domain.OrderRecord, error) {
	q := url.Values{}
	q.Set("status", "any")
	q.Set("limit", fmt.Sprintf("%d", shopifyPageSize))
	q.Set("created_at_min", since.UTC().Format(time.RFC3339))

	next := fmt.Sprintf("%s/admin/api/%s/orders.json?%s", c.baseURL, shopifyAPIVersion, q.Encode())

	var records []domain.OrderRecord
	for next != "" {
		var page struct {
			Orders []json.RawMessage `json:"orders"`
		}
		pageURL := next
		header, err := c.t.getJSON(ctx, func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, pageURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("X-Shopify-Access-Token", c.accessToken)
			return req, nil
		}, &page)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Orders {
			rec, err := NormalizeShopifyOrder(c.shop, raw)
			if err != nil {
				c.logger.Warn().Err(err).Msg("Skipping malformed order payload")
				continue
			}
			records = append(records, rec)
		}

		next = nextPageURL(header.Get("Link"))
	}

	c.logger.Debug().Int("orders", len(records)).Msg("Fetched orders")
	return records, nil
}

// NormalizeShopifyOrder converts one raw Shopify order payload into the
// canonical record. It is exported because the webhook adapter feeds webhook
// payloads through the exact same normalization as polled orders.
func NormalizeShopifyOrder(shop string, raw json.RawMessage) (domain.OrderRecord, error) {
	var o struct {
		ID              json.Number `json:"id"`
		CreatedAt       string      `json:"created_at"`
		TotalPrice      string      `json:"total_price"`
		Currency        string      `json:"currency"`
		FinancialStatus string      `json:"financial_status"`
		Customer        *struct {
			ID          json.Number `json:"id"`
			Email       string      `json:"email"`
			OrdersCount int         `json:"orders_count"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(raw, &o); err != nil {
		return domain.OrderRecord{}, fmt.Errorf("failed to parse order: %w", err)
	}
	if o.ID.String() == "" {
		return domain.OrderRecord{}, fmt.Errorf("order payload missing id")
	}

	orderDate, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		return domain.OrderRecord{}, fmt.Errorf("order %s has invalid created_at %q", o.ID, o.CreatedAt)
	}

	total, err := decimal.NewFromString(o.TotalPrice)
	if err != nil {
		total = decimal.Zero
	}

	status, ok := shopifyStatusMap[o.FinancialStatus]
	if !ok {
		status = domain.OrderStatusPending
	}

	rec := domain.OrderRecord{
		ExternalID:  o.ID.String(),
		StoreID:     NormalizeShopDomain(shop),
		OrderDate:   orderDate.UTC(),
		TotalAmount: total,
		Currency:    o.Currency,
		Status:      status,
		Raw:         raw,
	}
	if o.Customer != nil {
		rec.CustomerID = o.Customer.ID.String()
		rec.CustomerEmail = o.Customer.Email
		isNew := o.Customer.OrdersCount == 1
		rec.IsNewCustomer = &isNew
	}
	return rec, nil
}

// NormalizeShopDomain reduces a shop identifier to its bare handle, accepting
// either "acme" or "acme.myshopify.com".
func NormalizeShopDomain(shop string) string {
	shop = strings.TrimSpace(strings.ToLower(shop))
	return strings.TrimSuffix(shop, ".myshopify.com")
}

// nextPageURL extracts the rel="next" cursor from a Shopify Link header.
// Returns "" on the last page.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if !strings.Contains(section[1], `rel="next"`) {
			continue
		}
		u := strings.TrimSpace(section[0])
		u = strings.TrimPrefix(u, "<")
		return strings.TrimSuffix(u, ">")
	}
	return ""
}
