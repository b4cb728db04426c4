package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"profitpulse-sync-core/internal/domain"

	"github.com/rs/zerolog"
)

const tiktokAPIURL = "https://business-api.tiktok.com/open_api/v1.3"

var tiktokStatusMap = map[string]domain.CampaignStatus{
	"ENABLE":  domain.CampaignActive,
	"DISABLE": domain.CampaignPaused,
}

// TikTokClient reads campaigns from the TikTok Business API. The API wraps
// every response in a code/message envelope; a non-zero code is an
// application-level failure even on HTTP 200.
type TikTokClient struct {
	advertiserID string
	accessToken  string
	t            *transport
	logger       zerolog.Logger
}

func NewTikTokClient(advertiserID, accessToken string, t *transport, logger zerolog.Logger) *TikTokClient {
	return &TikTokClient{
		advertiserID: advertiserID,
		accessToken:  accessToken,
		t:            t,
		logger:       logger.With().Str("platform", "tiktok").Str("advertiser_id", advertiserID).Logger(),
	}
}

func (c *TikTokClient) Platform() domain.Platform { return domain.PlatformTikTok }

func (c *TikTokClient) FetchCampaigns(ctx context.Context) ([]domain.CampaignRecord, error) {
	var records []domain.CampaignRecord
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("advertiser_id", c.advertiserID)
		q.Set("page", fmt.Sprintf("%d", page))
		q.Set("page_size", "100")
		pageURL := fmt.Sprintf("%s/campaign/get/?%s", tiktokAPIURL, q.Encode())

		var resp struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    struct {
				List []struct {
					CampaignID      string `json:"campaign_id"`
					CampaignName    string `json:"campaign_name"`
					OperationStatus string `json:"operation_status"`
				} `json:"list"`
				PageInfo struct {
					Page      int `json:"page"`
					TotalPage int `json:"total_page"`
				} `json:"page_info"`
			} `json:"data"`
		}
		_, err := c.t.getJSON(ctx, func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, pageURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Access-Token", c.accessToken)
			return req, nil
		}, &resp)
		if err != nil {
			return nil, err
		}
		if resp.Code != 0 {
			return nil, fmt.Errorf("tiktok returned code %d: %s", resp.Code, resp.Message)
		}

		for _, row := range resp.Data.List {
			status, ok := tiktokStatusMap[row.OperationStatus]
			if !ok {
				status = domain.CampaignInactive
			}
			records = append(records, domain.CampaignRecord{
				ExternalID: row.CampaignID,
				Name:       row.CampaignName,
				Status:     status,
			})
		}

		if resp.Data.PageInfo.Page >= resp.Data.PageInfo.TotalPage {
			break
		}
	}

	c.logger.Debug().Int("campaigns", len(records)).Msg("Fetched campaigns")
	return records, nil
}

// FetchDailySpend is not wired for TikTok yet; the reporting endpoint needs a
// separate report-request flow. Spend stays zero until that lands.
func (c *TikTokClient) FetchDailySpend(ctx context.Context, start, end time.Time) ([]domain.SpendRecord, error) {
	c.logger.Debug().Msg("Daily spend reporting not implemented for tiktok")
	return nil, nil
}
