package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Taxon is a category or an occasion ("Birthday", "Roses", ...).
type Taxon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description" json:"description"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
