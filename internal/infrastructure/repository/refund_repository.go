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

// MongoRefundRepository implements RefundRepository using MongoDB
type MongoRefundRepository struct {
	collection *mongo.Collection
}

// NewMongoRefundRepository creates a new MongoDB refund repository
func NewMongoRefundRepository(db *mongo.Database) ports.RefundRepository {
	r := &MongoRefundRepository{
		collection: db.Collection("refunds"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "orgId", Value: 1}, {Key: "externalId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert creates or replaces the refund for (org, external id)
func (r *MongoRefundRepository) Upsert(ctx context.Context, refund *domain.Refund) error {
	doc := entity.MongoRefundDocFromDomain(refund)
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orgId": refund.OrgID, "externalId": refund.ExternalID}
	update := bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": id}}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert refund: %w", err)
	}

	return nil
}

// ListByDate retrieves all refunds issued on a calendar day
func (r *MongoRefundRepository) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Refund, error) {
	filter := dayFilter("refundDate", day)
	filter["orgId"] = orgID

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer cursor.Close(ctx)

	var refunds []*domain.Refund
	for cursor.Next(ctx) {
		var doc entity.MongoRefundDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode refund: %w", err)
		}
		refunds = append(refunds, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return refunds, nil
}
