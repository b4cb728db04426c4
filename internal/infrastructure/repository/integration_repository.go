package repository

import (
	"context"
	"fmt"
	"time"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/repository/entity"
	"profitpulse-sync-core/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIntegrationRepository implements IntegrationRepository using MongoDB
type MongoIntegrationRepository struct {
	collection *mongo.Collection
}

// NewMongoIntegrationRepository creates a new MongoDB integration repository
func NewMongoIntegrationRepository(db *mongo.Database) ports.IntegrationRepository {
	r := &MongoIntegrationRepository{
		collection: db.Collection("integrations"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "orgId", Value: 1}, {Key: "platform", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert creates or replaces the integration for (org, platform)
func (r *MongoIntegrationRepository) Upsert(ctx context.Context, integration *domain.Integration) error {
	doc := entity.MongoIntegrationDocFromDomain(integration)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orgId": integration.OrgID, "platform": string(integration.Platform)}
	update := bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": id}}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}

	return nil
}

// Update replaces an existing integration by ID
func (r *MongoIntegrationRepository) Update(ctx context.Context, integration *domain.Integration) error {
	doc := entity.MongoIntegrationDocFromDomain(integration)
	doc.UpdatedAt = time.Now()
	doc.ID = ""

	filter := bson.M{"_id": integration.ID}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrIntegrationNotFound
	}

	return nil
}

// GetByID retrieves an integration by its ID
func (r *MongoIntegrationRepository) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByOrgAndPlatform retrieves an organization's integration for a platform
func (r *MongoIntegrationRepository) GetByOrgAndPlatform(ctx context.Context, orgID string, platform domain.Platform) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"orgId": orgID, "platform": string(platform)})
}

// GetByAccountID resolves an integration from the platform's account identifier
func (r *MongoIntegrationRepository) GetByAccountID(ctx context.Context, platform domain.Platform, accountID string) (*domain.Integration, error) {
	return r.findOne(ctx, bson.M{"platform": string(platform), "accountId": accountID})
}

// ListConnected retrieves all connected integrations for an organization
func (r *MongoIntegrationRepository) ListConnected(ctx context.Context, orgID string) ([]*domain.Integration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"orgId": orgID, "connected": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	defer cursor.Close(ctx)

	var integrations []*domain.Integration
	for cursor.Next(ctx) {
		var doc entity.MongoIntegrationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode integration: %w", err)
		}
		integrations = append(integrations, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return integrations, nil
}

// Disconnect marks the integration disconnected and blanks its credentials
func (r *MongoIntegrationRepository) Disconnect(ctx context.Context, orgID string, platform domain.Platform) error {
	filter := bson.M{"orgId": orgID, "platform": string(platform)}
	update := bson.M{"$set": bson.M{
		"connected":    false,
		"accessToken":  "",
		"refreshToken": "",
		"updatedAt":    time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to disconnect integration: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrIntegrationNotFound
	}

	return nil
}

func (r *MongoIntegrationRepository) findOne(ctx context.Context, filter bson.M) (*domain.Integration, error) {
	var doc entity.MongoIntegrationDoc

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}

	return doc.ToDomain(), nil
}
