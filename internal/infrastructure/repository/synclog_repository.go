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

// MongoSyncLogRepository implements SyncLogRepository using MongoDB
type MongoSyncLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncLogRepository creates a new MongoDB sync log repository
func NewMongoSyncLogRepository(db *mongo.Database) ports.SyncLogRepository {
	r := &MongoSyncLogRepository{
		collection: db.Collection("sync_logs"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "startedAt", Value: -1}},
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Create inserts a new sync log
func (r *MongoSyncLogRepository) Create(ctx context.Context, log *domain.SyncLog) error {
	doc := entity.MongoSyncLogDocFromDomain(log)

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}

	return nil
}

// Update replaces an existing sync log by ID
func (r *MongoSyncLogRepository) Update(ctx context.Context, log *domain.SyncLog) error {
	doc := entity.MongoSyncLogDocFromDomain(log)
	doc.ID = ""

	filter := bson.M{"_id": log.ID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update sync log: %w", err)
	}

	return nil
}

// HasInProgress reports whether any sync run for the org is still running
func (r *MongoSyncLogRepository) HasInProgress(ctx context.Context, orgID string) (bool, error) {
	filter := bson.M{
		"orgId":  orgID,
		"status": bson.M{"$in": []string{string(domain.SyncStatusPending), string(domain.SyncStatusInProgress)}},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to count sync logs: %w", err)
	}

	return count > 0, nil
}

// LatestCompleted retrieves the most recent finished sync run for the org
func (r *MongoSyncLogRepository) LatestCompleted(ctx context.Context, orgID string) (*domain.SyncLog, error) {
	var doc entity.MongoSyncLogDoc
	filter := bson.M{
		"orgId":  orgID,
		"status": bson.M{"$in": []string{string(domain.SyncStatusSuccess), string(domain.SyncStatusFailed)}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "completedAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync log: %w", err)
	}

	return doc.ToDomain(), nil
}
