package entity

import (
	"time"

	"profitpulse-sync-core/internal/domain"
)

// MongoAdSpendDoc represents one day of ad spend in MongoDB
type MongoAdSpendDoc struct {
	ID          string    `bson:"_id,omitempty"`
	OrgID       string    `bson:"orgId"`
	Date        time.Time `bson:"date"`
	Platform    string    `bson:"platform"`
	AccountID   string    `bson:"accountId"`
	Spend       string    `bson:"spend"`
	Currency    string    `bson:"currency"`
	Impressions int64     `bson:"impressions"`
	Clicks      int64     `bson:"clicks"`
	Conversions int       `bson:"conversions"`
	SyncedAt    time.Time `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoAdSpendDoc) ToDomain() *domain.AdSpend {
	return &domain.AdSpend{
		ID:          d.ID,
		OrgID:       d.OrgID,
		Date:        d.Date,
		Platform:    domain.Platform(d.Platform),
		AccountID:   d.AccountID,
		Spend:       parseAmount(d.Spend),
		Currency:    d.Currency,
		Impressions: d.Impressions,
		Clicks:      d.Clicks,
		Conversions: d.Conversions,
		SyncedAt:    d.SyncedAt,
	}
}

// MongoAdSpendDocFromDomain converts a domain entity to a MongoDB document
func MongoAdSpendDocFromDomain(spend *domain.AdSpend) *MongoAdSpendDoc {
	return &MongoAdSpendDoc{
		ID:          spend.ID,
		OrgID:       spend.OrgID,
		Date:        spend.Date,
		Platform:    string(spend.Platform),
		AccountID:   spend.AccountID,
		Spend:       spend.Spend.String(),
		Currency:    spend.Currency,
		Impressions: spend.Impressions,
		Clicks:      spend.Clicks,
		Conversions: spend.Conversions,
		SyncedAt:    spend.SyncedAt,
	}
}

// MongoCampaignDoc represents an ad campaign in MongoDB
type MongoCampaignDoc struct {
	ID          string     `bson:"_id,omitempty"`
	OrgID       string     `bson:"orgId"`
	ExternalID  string     `bson:"externalId"`
	Name        string     `bson:"name"`
	Platform    string     `bson:"platform"`
	Status      string     `bson:"status"`
	Spend       string     `bson:"spend"`
	Revenue     string     `bson:"revenue"`
	ROAS        float64    `bson:"roas"`
	CPA         float64    `bson:"cpa"`
	Impressions int64      `bson:"impressions"`
	Clicks      int64      `bson:"clicks"`
	Conversions int        `bson:"conversions"`
	LastSyncAt  *time.Time `bson:"lastSyncAt,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCampaignDoc) ToDomain() *domain.Campaign {
	return &domain.Campaign{
		ID:          d.ID,
		OrgID:       d.OrgID,
		ExternalID:  d.ExternalID,
		Name:        d.Name,
		Platform:    domain.Platform(d.Platform),
		Status:      domain.CampaignStatus(d.Status),
		Spend:       parseAmount(d.Spend),
		Revenue:     parseAmount(d.Revenue),
		ROAS:        d.ROAS,
		CPA:         d.CPA,
		Impressions: d.Impressions,
		Clicks:      d.Clicks,
		Conversions: d.Conversions,
		LastSyncAt:  d.LastSyncAt,
	}
}

// MongoCampaignDocFromDomain converts a domain entity to a MongoDB document
func MongoCampaignDocFromDomain(campaign *domain.Campaign) *MongoCampaignDoc {
	return &MongoCampaignDoc{
		ID:          campaign.ID,
		OrgID:       campaign.OrgID,
		ExternalID:  campaign.ExternalID,
		Name:        campaign.Name,
		Platform:    string(campaign.Platform),
		Status:      string(campaign.Status),
		Spend:       campaign.Spend.String(),
		Revenue:     campaign.Revenue.String(),
		ROAS:        campaign.ROAS,
		CPA:         campaign.CPA,
		Impressions: campaign.Impressions,
		Clicks:      campaign.Clicks,
		Conversions: campaign.Conversions,
		LastSyncAt:  campaign.LastSyncAt,
	}
}

// MongoExpenseDoc represents an expense ledger entry in MongoDB
type MongoExpenseDoc struct {
	ID         string     `bson:"_id,omitempty"`
	OrgID      string     `bson:"orgId"`
	Name       string     `bson:"name"`
	Type       string     `bson:"type"`
	Amount     string     `bson:"amount"`
	Recurrence string     `bson:"recurrence"`
	Date       time.Time  `bson:"date"`
	EndDate    *time.Time `bson:"endDate,omitempty"`
	Active     bool       `bson:"active"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoExpenseDoc) ToDomain() *domain.Expense {
	return &domain.Expense{
		ID:         d.ID,
		OrgID:      d.OrgID,
		Name:       d.Name,
		Type:       d.Type,
		Amount:     parseAmount(d.Amount),
		Recurrence: domain.Recurrence(d.Recurrence),
		Date:       d.Date,
		EndDate:    d.EndDate,
		Active:     d.Active,
	}
}

// MongoExpenseDocFromDomain converts a domain entity to a MongoDB document
func MongoExpenseDocFromDomain(expense *domain.Expense) *MongoExpenseDoc {
	return &MongoExpenseDoc{
		ID:         expense.ID,
		OrgID:      expense.OrgID,
		Name:       expense.Name,
		Type:       expense.Type,
		Amount:     expense.Amount.String(),
		Recurrence: string(expense.Recurrence),
		Date:       expense.Date,
		EndDate:    expense.EndDate,
		Active:     expense.Active,
	}
}

// MongoDailyMetricsDoc represents a materialized daily snapshot in MongoDB
type MongoDailyMetricsDoc struct {
	OrgID             string             `bson:"orgId"`
	Date              time.Time          `bson:"date"`
	GrossRevenue      string             `bson:"grossRevenue"`
	TotalRefunds      string             `bson:"totalRefunds"`
	Revenue           string             `bson:"revenue"`
	OrdersCount       int                `bson:"ordersCount"`
	AverageOrderValue string             `bson:"averageOrderValue"`
	NewCustomers      int                `bson:"newCustomers"`
	TotalExpenses     string             `bson:"totalExpenses"`
	ExpensesBreakdown map[string]float64 `bson:"expensesBreakdown,omitempty"`
	TotalSpend        string             `bson:"totalSpend"`
	SpendByPlatform   map[string]float64 `bson:"spendByPlatform,omitempty"`
	RevenueBySource   map[string]float64 `bson:"revenueBySource,omitempty"`
	NetProfit         string             `bson:"netProfit"`
	ROAS              float64            `bson:"roas"`
	MER               float64            `bson:"mer"`
	NetMargin         float64            `bson:"netMargin"`
	NCPA              float64            `bson:"ncpa"`
	DataSource        string             `bson:"dataSource"`
	ComputedAt        time.Time          `bson:"computedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoDailyMetricsDoc) ToDomain() *domain.DailyMetrics {
	return &domain.DailyMetrics{
		OrgID:             d.OrgID,
		Date:              d.Date,
		GrossRevenue:      parseAmount(d.GrossRevenue),
		TotalRefunds:      parseAmount(d.TotalRefunds),
		Revenue:           parseAmount(d.Revenue),
		OrdersCount:       d.OrdersCount,
		AverageOrderValue: parseAmount(d.AverageOrderValue),
		NewCustomers:      d.NewCustomers,
		TotalExpenses:     parseAmount(d.TotalExpenses),
		ExpensesBreakdown: d.ExpensesBreakdown,
		TotalSpend:        parseAmount(d.TotalSpend),
		SpendByPlatform:   d.SpendByPlatform,
		RevenueBySource:   d.RevenueBySource,
		NetProfit:         parseAmount(d.NetProfit),
		ROAS:              d.ROAS,
		MER:               d.MER,
		NetMargin:         d.NetMargin,
		NCPA:              d.NCPA,
		DataSource:        d.DataSource,
		ComputedAt:        d.ComputedAt,
	}
}

// MongoDailyMetricsDocFromDomain converts a domain entity to a MongoDB document
func MongoDailyMetricsDocFromDomain(m *domain.DailyMetrics) *MongoDailyMetricsDoc {
	return &MongoDailyMetricsDoc{
		OrgID:             m.OrgID,
		Date:              m.Date,
		GrossRevenue:      m.GrossRevenue.String(),
		TotalRefunds:      m.TotalRefunds.String(),
		Revenue:           m.Revenue.String(),
		OrdersCount:       m.OrdersCount,
		AverageOrderValue: m.AverageOrderValue.String(),
		NewCustomers:      m.NewCustomers,
		TotalExpenses:     m.TotalExpenses.String(),
		ExpensesBreakdown: m.ExpensesBreakdown,
		TotalSpend:        m.TotalSpend.String(),
		SpendByPlatform:   m.SpendByPlatform,
		RevenueBySource:   m.RevenueBySource,
		NetProfit:         m.NetProfit.String(),
		ROAS:              m.ROAS,
		MER:               m.MER,
		NetMargin:         m.NetMargin,
		NCPA:              m.NCPA,
		DataSource:        m.DataSource,
		ComputedAt:        m.ComputedAt,
	}
}
