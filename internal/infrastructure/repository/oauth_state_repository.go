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

// MongoOAuthStateRepository implements OAuthStateRepository using MongoDB
type MongoOAuthStateRepository struct {
	collection *mongo.Collection
}

// NewMongoOAuthStateRepository creates a new MongoDB OAuth state repository
func NewMongoOAuthStateRepository(db *mongo.Database) ports.OAuthStateRepository {
	r := &MongoOAuthStateRepository{
		collection: db.Collection("oauth_states"),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "state", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Create stores a new state token
func (r *MongoOAuthStateRepository) Create(ctx context.Context, state *domain.OAuthState) error {
	doc := entity.MongoOAuthStateDocFromDomain(state)
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create oauth state: %w", err)
	}

	return nil
}

// Consume atomically looks up and deletes the state row. FindOneAndDelete
// guarantees a second consumer loses even when both arrive concurrently.
func (r *MongoOAuthStateRepository) Consume(ctx context.Context, state string) (*domain.OAuthState, error) {
	var doc entity.MongoOAuthStateDoc

	err := r.collection.FindOneAndDelete(ctx, bson.M{"state": state}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrInvalidOAuthState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	return doc.ToDomain(), nil
}

// DeleteExpired removes state rows past their TTL
func (r *MongoOAuthStateRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired oauth states: %w", err)
	}

	return result.DeletedCount, nil
}
