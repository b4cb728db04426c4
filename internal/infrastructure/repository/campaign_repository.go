package repository

import (
	"context"
	"fmt"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/infrastructure/repository/entity"
	"profitpulse-sync-core/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCampaignRepository implements CampaignRepository using MongoDB
type MongoCampaignRepository struct {
	collection *mongo.Collection
}

// NewMongoCampaignRepository creates a new MongoDB campaign repository
func NewMongoCampaignRepository(db *mongo.Database) ports.CampaignRepository {
	r := &MongoCampaignRepository{
		collection: db.Collection("campaigns"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "orgId", Value: 1}, {Key: "externalId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert creates or replaces the campaign for (org, external id)
func (r *MongoCampaignRepository) Upsert(ctx context.Context, campaign *domain.Campaign) error {
	doc := entity.MongoCampaignDocFromDomain(campaign)
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orgId": campaign.OrgID, "externalId": campaign.ExternalID}
	update := bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": id}}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}

	return nil
}

// ListByOrg retrieves all campaigns for an organization
func (r *MongoCampaignRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Campaign, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"orgId": orgID})
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	var campaigns []*domain.Campaign
	for cursor.Next(ctx) {
		var doc entity.MongoCampaignDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode campaign: %w", err)
		}
		campaigns = append(campaigns, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return campaigns, nil
}
