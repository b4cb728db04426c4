package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const metaGraphURL = "https://graph.facebook.com/v18.0"

var metaStatusMap = map[string]domain.CampaignStatus{
	"ACTIVE":     domain.CampaignActive,
	"PAUSED":     domain.CampaignPaused,
	"IN_PROCESS": domain.CampaignLearning,
}

// MetaClient reads campaigns and daily spend from the Meta Marketing API.
// Pagination follows the paging.next URL the API returns.
type MetaClient struct {
	accountID   string
	accessToken string
	t           *transport
	logger      zerolog.Logger
}

func NewMetaClient(accountID, accessToken string, t *transport, logger zerolog.Logger) *MetaClient {
	return &MetaClient{
		accountID:   accountID,
		accessToken: accessToken,
		t:           t,
		logger:      logger.With().Str("platform", "meta").Str("account_id", accountID).Logger(),
	}
}

func (c *MetaClient) Platform() domain.Platform { return domain.PlatformMeta }

func (c *MetaClient) FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error) {
	q := url.Values{}
	q.Set("fields", "id,name,status,insights{spend,impressions,clicks,actions}")
	q.Set("limit", "100")
	q.Set("access_token", c.accessToken)
	next := fmt.Sprintf("%s/act_%s/campaigns?%s", metaGraphURL, c.accountID, q.Encode())

	var records []domain.CampaignRecord
	for next != "" {
		var page struct {
			Data []struct {
				ID       string `json:"id"`
				Name     string `json:"name"`
				Status   string `json:"status"`
				Insights struct {
					Data []metaInsightRow `json:"data"`
				} `json:"insights"`
			} `json:"data"`
			Paging struct {
				Next string `json:"next"`
			} `json:"paging"`
		}
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}

		for _, row := range page.Data {
			status, ok := metaStatusMap[row.Status]
			if !ok {
				status = domain.CampaignInactive
			}
			rec := domain.CampaignRecord{
				ExternalID: row.ID,
				Name:       row.Name,
				Status:     status,
			}
			if len(row.Insights.Data) > 0 {
				in := row.Insights.Data[0]
				rec.Spend = parseDecimal(in.Spend)
				rec.Impressions = parseInt(in.Impressions)
				rec.Clicks = parseInt(in.Clicks)
				rec.Conversions = purchaseCount(in.Actions)
			}
			records = append(records, rec)
		}
		next = page.Paging.Next
	}

	c.logger.Debug().Int("campaigns", len(records)).Msg("Fetched campaigns")
	return records, nil
}

func (c *MetaClient) FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error) {
	q := url.Values{}
	q.Set("fields", "spend,impressions,clicks,actions")
	q.Set("time_increment", "1")
	q.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout)))
	q.Set("limit", "100")
	q.Set("access_token", c.accessToken)
	next := fmt.Sprintf("%s/act_%s/insights?%s", metaGraphURL, c.accountID, q.Encode())

	var records []domain.SpendRecord
	for next != "" {
		var page struct {
			Data []struct {
				metaInsightRow
				DateStart string `json:"date_start"`
			} `json:"data"`
			Paging struct {
				Next string `json:"next"`
			} `json:"paging"`
		}
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}

		for _, row := range page.Data {
			day, err := time.Parse(domain.DateLayout, row.DateStart)
			if err != nil {
				c.logger.Warn().Str("date_start", row.DateStart).Msg("Skipping insight row with invalid date")
				continue
			}
			records = append(records, domain.SpendRecord{
				Date:        day,
				Platform:    domain.PlatformMeta,
				AccountID:   c.accountID,
				Spend:       parseDecimal(row.Spend),
				Currency:    "USD",
				Impressions: parseInt(row.Impressions),
				Clicks:      parseInt(row.Clicks),
				Conversions: purchaseCount(row.Actions),
			})
		}
		next = page.Paging.Next
	}

	c.logger.Debug().Int("days", len(records)).Msg("Fetched daily spend")
	return records, nil
}

func (c *MetaClient) get(ctx context.Context, rawURL string, v any) error {
	_, err := c.t.getJSON(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, rawURL, nil)
	}, v)
	return err
}

type metaInsightRow struct {
	Spend       string       `json:"spend"`
	Impressions string       `json:"impressions"`
	Clicks      string       `json:"clicks"`
	Actions     []metaAction `json:"actions"`
}

type metaAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// purchaseCount sums purchase-type actions; Meta reports conversions as a
// typed action list rather than a scalar.
func purchaseCount(actions []metaAction) int {
	total := 0
	for _, a := range actions {
		if a.ActionType == "purchase" || a.ActionType == "omni_purchase" {
			total += int(parseInt(a.Value))
		}
	}
	return total
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.IntPart()
}
