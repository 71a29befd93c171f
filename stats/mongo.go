package stats

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/festivalfund/festival-fund-go/models"
)

// MongoStore implements Ledger and FestivalStore over the contributions,
// expenses and festivals collections.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type sumResult struct {
	Total float64 `bson:"total"`
}

type categoryResult struct {
	Category string  `bson:"_id"`
	Total    float64 `bson:"total"`
}

func (s *MongoStore) ContributionTotal(ctx context.Context, festivalID primitive.ObjectID, status string, cashOnly bool) (float64, error) {
	match := bson.M{"festivalId": festivalID, "status": status}
	if cashOnly {
		match["type"] = models.TypeCash
	}
	return s.sum(ctx, "contributions", match)
}

func (s *MongoStore) ExpenseTotal(ctx context.Context, festivalID primitive.ObjectID) (float64, error) {
	return s.sum(ctx, "expenses", bson.M{"festivalId": festivalID})
}

// sum runs a $match/$group pipeline totalling the amount field. $sum
// skips missing and non-numeric values, so item contributions without an
// amount contribute 0 rather than poisoning the total.
func (s *MongoStore) sum(ctx context.Context, collection string, match bson.M) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []sumResult
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func (s *MongoStore) ExpenseTotalsByCategory(ctx context.Context, festivalID primitive.ObjectID) (map[string]float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"festivalId": festivalID}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "total": bson.M{"$sum": "$amount"}}}},
	}

	cursor, err := s.db.Collection("expenses").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []categoryResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(results))
	for _, r := range results {
		totals[r.Category] = r.Total
	}
	return totals, nil
}

func (s *MongoStore) OpeningBalance(ctx context.Context, festivalID primitive.ObjectID) (float64, error) {
	var festival models.Festival
	err := s.db.Collection("festivals").
		FindOne(ctx, bson.M{"_id": festivalID}).
		Decode(&festival)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrFestivalNotFound
		}
		return 0, err
	}
	return festival.Stats.OpeningBalance, nil
}

// ReplaceStats overwrites the stats subdocument. Deliberately not an
// upsert: an unknown id matches nothing and writes nothing.
func (s *MongoStore) ReplaceStats(ctx context.Context, festivalID primitive.ObjectID, snapshot models.StatsSnapshot) error {
	_, err := s.db.Collection("festivals").UpdateByID(ctx, festivalID, bson.M{
		"$set": bson.M{"stats": snapshot},
	})
	return err
}
