package entity

import (
	"time"

	"profitpulse-sync-core/internal/domain"
)

// MongoIntegrationDoc represents a platform integration in MongoDB
type MongoIntegrationDoc struct {
	ID           string            `bson:"_id,omitempty"`
	OrgID        string            `bson:"orgId"`
	Platform     string            `bson:"platform"`
	AccessToken  string            `bson:"accessToken"`
	RefreshToken string            `bson:"refreshToken,omitempty"`
	ExpiresAt    *time.Time        `bson:"expiresAt,omitempty"`
	AccountID    string            `bson:"accountId"`
	AccountName  string            `bson:"accountName"`
	Connected    bool              `bson:"connected"`
	LastSyncAt   *time.Time        `bson:"lastSyncAt,omitempty"`
	Metadata     map[string]string `bson:"metadata,omitempty"`
	CreatedAt    time.Time         `bson:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoIntegrationDoc) ToDomain() *domain.Integration {
	return &domain.Integration{
		ID:           d.ID,
		OrgID:        d.OrgID,
		Platform:     domain.Platform(d.Platform),
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		ExpiresAt:    d.ExpiresAt,
		AccountID:    d.AccountID,
		AccountName:  d.AccountName,
		Connected:    d.Connected,
		LastSyncAt:   d.LastSyncAt,
		Metadata:     d.Metadata,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoIntegrationDocFromDomain converts a domain entity to a MongoDB document
func MongoIntegrationDocFromDomain(integration *domain.Integration) *MongoIntegrationDoc {
	return &MongoIntegrationDoc{
		ID:           integration.ID,
		OrgID:        integration.OrgID,
		Platform:     string(integration.Platform),
		AccessToken:  integration.AccessToken,
		RefreshToken: integration.RefreshToken,
		ExpiresAt:    integration.ExpiresAt,
		AccountID:    integration.AccountID,
		AccountName:  integration.AccountName,
		Connected:    integration.Connected,
		LastSyncAt:   integration.LastSyncAt,
		Metadata:     integration.Metadata,
		CreatedAt:    integration.CreatedAt,
		UpdatedAt:    integration.UpdatedAt,
	}
}

// MongoOAuthStateDoc represents a single-use OAuth state token in MongoDB
type MongoOAuthStateDoc struct {
	ID        string    `bson:"_id,omitempty"`
	OrgID     string    `bson:"orgId"`
	UserID    string    `bson:"userId"`
	Platform  string    `bson:"platform"`
	State     string    `bson:"state"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoOAuthStateDoc) ToDomain() *domain.OAuthState {
	return &domain.OAuthState{
		ID:        d.ID,
		OrgID:     d.OrgID,
		UserID:    d.UserID,
		Platform:  domain.Platform(d.Platform),
		State:     d.State,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
}

// MongoOAuthStateDocFromDomain converts a domain entity to a MongoDB document
func MongoOAuthStateDocFromDomain(state *domain.OAuthState) *MongoOAuthStateDoc {
	return &MongoOAuthStateDoc{
		ID:        state.ID,
		OrgID:     state.OrgID,
		UserID:    state.UserID,
		Platform:  string(state.Platform),
		State:     state.State,
		ExpiresAt: state.ExpiresAt,
		CreatedAt: state.CreatedAt,
	}
}
