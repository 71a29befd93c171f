package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution is a tagged variant: type "cash" carries Amount, type
// "item" carries ItemName/Quantity/EstimatedValue. Only cash amounts ever
// enter the festival balance; item estimated values are informational.
type Contribution struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContributorID primitive.ObjectID `bson:"contributorId" json:"contributorId"`
	FestivalID    primitive.ObjectID `bson:"festivalId" json:"festivalId"`
	Type          string             `bson:"type" json:"type"`     // cash, item
	Status        string             `bson:"status" json:"status"` // pending, deposited, cancelled
	Date          time.Time          `bson:"date" json:"date"`

	// cash
	Amount *float64 `bson:"amount,omitempty" json:"amount,omitempty"`

	// item
	ItemName       string   `bson:"itemName,omitempty" json:"itemName,omitempty"`
	Quantity       int      `bson:"quantity,omitempty" json:"quantity,omitempty"`
	EstimatedValue *float64 `bson:"estimatedValue,omitempty" json:"estimatedValue,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CashAmount returns the contribution's cash amount, treating a missing
// amount (item rows) as 0.
func (c Contribution) CashAmount() float64 {
	if c.Amount == nil {
		return 0
	}
	return *c.Amount
}
