package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatsSnapshot is the cached financial aggregate for a festival. It is
// recomputed and overwritten wholesale on every contribution/expense
// mutation; the ledger collections stay the source of truth.
type StatsSnapshot struct {
	OpeningBalance float64            `bson:"openingBalance" json:"openingBalance"`
	TotalCollected float64            `bson:"totalCollected" json:"totalCollected"`
	PendingAmount  float64            `bson:"pendingAmount" json:"pendingAmount"`
	TotalExpenses  float64            `bson:"totalExpenses" json:"totalExpenses"`
	CurrentBalance float64            `bson:"currentBalance" json:"currentBalance"`
	CategoryTotals map[string]float64 `bson:"categoryTotals" json:"categoryTotals"`
}

type Festival struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Year           int                `bson:"year" json:"year"`
	OpeningBalance float64            `bson:"openingBalance" json:"openingBalance"`
	Stats          StatsSnapshot      `bson:"stats" json:"stats"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
