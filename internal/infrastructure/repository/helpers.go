package repository

import (
	"time"

	"profitpulse-sync-core/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
)

// dayFilter matches timestamps falling on the given UTC calendar day.
func dayFilter(field string, day time.Time) bson.M {
	start := domain.DayOf(day)
	return bson.M{field: bson.M{"$gte": start, "$lt": start.Add(24 * time.Hour)}}
}
