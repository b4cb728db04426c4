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

// MongoAdSpendRepository implements AdSpendRepository using MongoDB
type MongoAdSpendRepository struct {
	collection *mongo.Collection
}

// NewMongoAdSpendRepository creates a new MongoDB ad spend repository
func NewMongoAdSpendRepository(db *mongo.Database) ports.AdSpendRepository {
	r := &MongoAdSpendRepository{
		collection: db.Collection("ad_spend"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "orgId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "platform", Value: 1},
			{Key: "accountId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert creates or replaces the spend row for (org, date, platform, account)
func (r *MongoAdSpendRepository) Upsert(ctx context.Context, spend *domain.AdSpend) error {
	doc := entity.MongoAdSpendDocFromDomain(spend)
	doc.Date = domain.DayOf(doc.Date)
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{
		"orgId":     spend.OrgID,
		"date":      domain.DayOf(spend.Date),
		"platform":  string(spend.Platform),
		"accountId": spend.AccountID,
	}
	update := bson.M{"$set": doc, "$setOnInsert": bson.M{"_id": id}}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert ad spend: %w", err)
	}

	return nil
}

// ListByDate retrieves all spend rows for a calendar day
func (r *MongoAdSpendRepository) ListByDate(ctx context.Context, orgID string, day time.Time) ([]*domain.AdSpend, error) {
	filter := bson.M{"orgId": orgID, "date": domain.DayOf(day)}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad spend: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []*domain.AdSpend
	for cursor.Next(ctx) {
		var doc entity.MongoAdSpendDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode ad spend: %w", err)
		}
		rows = append(rows, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return rows, nil
}
