package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus is the normalized campaign state vocabulary.
type CampaignStatus string

const (
	CampaignActive   CampaignStatus = "Active"
	CampaignPaused   CampaignStatus = "Paused"
	CampaignLearning CampaignStatus = "Learning"
	CampaignInactive CampaignStatus = "Inactive"
)

// Campaign is an ad campaign synced from an ad platform. Unique on
// (OrgID, ExternalID).
type Campaign struct {
	ID          string
	OrgID       string
	ExternalID  string
	Name        string
	Platform    Platform
	Status      CampaignStatus
	Spend       decimal.Decimal
	Revenue     decimal.Decimal
	ROAS        float64
	CPA         float64
	Impressions int64
	Clicks      int64
	Conversions int
	LastSyncAt  *time.Time
}
