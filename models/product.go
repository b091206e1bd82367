package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Price       float64              `bson:"price" json:"price"`
	Stock       int                  `bson:"stock" json:"stock"`
	Active      bool                 `bson:"active" json:"active"`
	CategoryID  *primitive.ObjectID  `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	OccasionIDs []primitive.ObjectID `bson:"occasionIds,omitempty" json:"occasionIds,omitempty"`
	ImageURL    string               `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Purchasable reports whether qty units can be sold right now.
func (p Product) Purchasable(qty int) bool {
	return p.Active && qty > 0 && qty <= p.Stock
}

type ProductFilter struct {
	CategoryID *primitive.ObjectID
	OccasionID *primitive.ObjectID
	ActiveOnly bool
	Limit      int64
	Skip       int64
}
