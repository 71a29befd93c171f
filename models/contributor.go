package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Contributor struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	PhoneNumber string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Category    string             `bson:"category" json:"category"` // Parents, Boys, Girls
	FestivalID  primitive.ObjectID `bson:"festivalId" json:"festivalId"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
