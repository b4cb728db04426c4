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

// MongoExpenseRepository implements ExpenseRepository using MongoDB
type MongoExpenseRepository struct {
	collection *mongo.Collection
}

// NewMongoExpenseRepository creates a new MongoDB expense repository
func NewMongoExpenseRepository(db *mongo.Database) ports.ExpenseRepository {
	r := &MongoExpenseRepository{
		collection: db.Collection("expenses"),
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "orgId", Value: 1}, {Key: "active", Value: 1}},
	}
	_, _ = r.collection.Indexes().CreateOne(context.Background(), indexModel)

	return r
}

// Upsert creates or replaces an expense by ID
func (r *MongoExpenseRepository) Upsert(ctx context.Context, expense *domain.Expense) error {
	doc := entity.MongoExpenseDocFromDomain(expense)
	id := doc.ID
	doc.ID = ""

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": id}
	update := bson.M{"$set": doc}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}

	return nil
}

// ListActive retrieves the active expense ledger for an organization. Date
// applicability is evaluated by the caller against each target day.
func (r *MongoExpenseRepository) ListActive(ctx context.Context, orgID string) ([]*domain.Expense, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"orgId": orgID, "active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var expenses []*domain.Expense
	for cursor.Next(ctx) {
		var doc entity.MongoExpenseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode expense: %w", err)
		}
		expenses = append(expenses, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return expenses, nil
}
