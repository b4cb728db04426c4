package entity

import (
	"time"

	"profitpulse-sync-core/internal/domain"
)

// MongoSyncLogDoc represents a sync run log in MongoDB
type MongoSyncLogDoc struct {
	ID               string     `bson:"_id,omitempty"`
	OrgID            string     `bson:"orgId"`
	IntegrationID    string     `bson:"integrationId,omitempty"`
	Type             string     `bson:"type"`
	Status           string     `bson:"status"`
	RecordsProcessed int        `bson:"recordsProcessed"`
	ErrorMessage     string     `bson:"errorMessage,omitempty"`
	StartedAt        time.Time  `bson:"startedAt"`
	CompletedAt      *time.Time `bson:"completedAt,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSyncLogDoc) ToDomain() *domain.SyncLog {
	return &domain.SyncLog{
		ID:               d.ID,
		OrgID:            d.OrgID,
		IntegrationID:    d.IntegrationID,
		Type:             domain.SyncType(d.Type),
		Status:           domain.SyncStatus(d.Status),
		RecordsProcessed: d.RecordsProcessed,
		ErrorMessage:     d.ErrorMessage,
		StartedAt:        d.StartedAt,
		CompletedAt:      d.CompletedAt,
	}
}

// MongoSyncLogDocFromDomain converts a domain entity to a MongoDB document
func MongoSyncLogDocFromDomain(log *domain.SyncLog) *MongoSyncLogDoc {
	return &MongoSyncLogDoc{
		ID:               log.ID,
		OrgID:            log.OrgID,
		IntegrationID:    log.IntegrationID,
		Type:             string(log.Type),
		Status:           string(log.Status),
		RecordsProcessed: log.RecordsProcessed,
		ErrorMessage:     log.ErrorMessage,
		StartedAt:        log.StartedAt,
		CompletedAt:      log.CompletedAt,
	}
}
