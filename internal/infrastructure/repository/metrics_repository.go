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

// MongoMetricsRepository implements MetricsRepository using MongoDB
type MongoMetricsRepository struct {
	collection *mongo.Collection
}

// NewMongoMetricsRepository creates a new MongoDB daily metrics repository
func NewMongoMetricsRepository(db *mongo.Database) ports.MetricsRepository {
	r := &MongoMetricsRepository{
		collection: db.Collection("daily_metrics"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "orgId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert replaces the snapshot for (org, date). Last write wins; every write
// is a full recomputation so order between concurrent writers is immaterial.
func (r *MongoMetricsRepository) Upsert(ctx context.Context, metrics *domain.DailyMetrics) error {
	doc := entity.MongoDailyMetricsDocFromDomain(metrics)
	doc.Date = domain.DayOf(doc.Date)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orgId": metrics.OrgID, "date": domain.DayOf(metrics.Date)}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert daily metrics: %w", err)
	}

	return nil
}

// Get retrieves the snapshot for (org, date)
func (r *MongoMetricsRepository) Get(ctx context.Context, orgID string, day time.Time) (*domain.DailyMetrics, error) {
	var doc entity.MongoDailyMetricsDoc
	filter := bson.M{"orgId": orgID, "date": domain.DayOf(day)}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metrics: %w", err)
	}

	return doc.ToDomain(), nil
}
