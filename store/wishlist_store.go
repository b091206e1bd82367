package store

import (
	"context"
	"time"

	"giftshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WishlistStore struct {
	coll *mongo.Collection
}

func NewWishlistStore(coll *mongo.Collection) *WishlistStore {
	return &WishlistStore{coll: coll}
}

// Add is idempotent: a second add of the same product leaves the entry untouched.
func (s *WishlistStore) Add(ctx context.Context, userID, productID primitive.ObjectID) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "productId": productID},
		bson.M{"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"userId":    userID,
			"productId": productID,
			"createdAt": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

func (s *WishlistStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}

	items := []models.WishlistItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *WishlistStore) Remove(ctx context.Context, userID, productID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
