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

// MongoOrderRepository implements OrderRepository using MongoDB
type MongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new MongoDB order repository
func NewMongoOrderRepository(db *mongo.Database) ports.OrderRepository {
	r := &MongoOrderRepository{
		collection: db.Collection("orders"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "orgId", Value: 1},
			{Key: "externalId", Value: 1},
			{Key: "source", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)
	dateIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "orderDate", Value: 1}},
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), dateIndex)

	return r
}

// Upsert creates or replaces the order for (org, external id, source)
func (r *MongoOrderRepository) Upsert(ctx context.Context, order *domain.Order) error {
	doc := entity.MongoOrderDocFromDomain(order)
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{
		"orgId":      order.OrgID,
		"externalId": order.ExternalID,
		"source":     string(order.Source),
	}
	update := bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": id}}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}

	return nil
}

// ListByDate retrieves all orders placed on a calendar day, any status
func (r *MongoOrderRepository) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.Order, error) {
	filter := dayFilter("orderDate", day)
	filter["orgId"] = orgID

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return orders, nil
}

// CountByOrg counts all stored orders for an organization
func (r *MongoOrderRepository) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"orgId": orgID})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}
