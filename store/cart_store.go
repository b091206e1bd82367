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

type CartStore struct {
	coll *mongo.Collection
}

func NewCartStore(coll *mongo.Collection) *CartStore {
	return &CartStore{coll: coll}
}

func (s *CartStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}

	items := []models.CartItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CartStore) Get(ctx context.Context, userID, productID primitive.ObjectID) (models.CartItem, error) {
	var item models.CartItem
	err := s.coll.FindOne(ctx, bson.M{"userId": userID, "productId": productID}).Decode(&item)
	if err != nil {
		return models.CartItem{}, translate(err)
	}
	return item, nil
}

// Add upserts the (user, product) line, incrementing quantity when it already exists.
func (s *CartStore) Add(ctx context.Context, userID, productID primitive.ObjectID, qty int) (models.CartItem, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$inc":         bson.M{"quantity": qty},
		"$set":         bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var item models.CartItem
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID, "productId": productID}, update, opts).Decode(&item)
	if err != nil {
		return models.CartItem{}, translate(err)
	}
	return item, nil
}

func (s *CartStore) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "productId": productID},
		bson.M{"$set": bson.M{"quantity": qty, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) Remove(ctx context.Context, userID, productID primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
