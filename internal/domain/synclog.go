package domain

import "time"

// SyncType identifies what a sync run ingested.
type SyncType string

const (
	SyncTypeOrders    SyncType = "orders"
	SyncTypeCampaigns SyncType = "campaigns"
	SyncTypeMetrics   SyncType = "metrics"
)

// SyncStatus is the lifecycle of a sync run.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusFailed     SyncStatus = "failed"
)

// SyncLog records one ingestion attempt. Append-mostly; drives the sync
// status endpoint and operational visibility.
type SyncLog struct {
	ID               string
	OrgID            string
	IntegrationID    string
	Type             SyncType
	Status           SyncStatus
	RecordsProcessed int
	ErrorMessage     string
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// MarkSuccess transitions the run to success with its record count.
func (l *SyncLog) MarkSuccess(records int, now time.Time) {
	l.Status = SyncStatusSuccess
	l.RecordsProcessed = records
	l.CompletedAt = &now
}

// MarkFailed transitions the run to failed with the error text.
func (l *SyncLog) MarkFailed(errMsg string, now time.Time) {
	l.Status = SyncStatusFailed
	l.ErrorMessage = errMsg
	l.CompletedAt = &now
}
