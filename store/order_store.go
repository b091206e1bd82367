package store

import (
	"context"
	"errors"
	"time"

	"giftshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(coll *mongo.Collection) *OrderStore {
	return &OrderStore{coll: coll}
}

func (s *OrderStore) Insert(ctx context.Context, order models.Order) error {
	_, err := s.coll.InsertOne(ctx, order)
	return translate(err)
}

func (s *OrderStore) Get(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetForUser only matches orders owned by userID.
func (s *OrderStore) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (s *OrderStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.find(ctx, bson.M{"userId": userID})
}

func (s *OrderStore) List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	return s.find(ctx, filter)
}

// UpdateStatus moves the order to next only if its current status allows it.
// The check and the write happen in one FindOneAndUpdate.
func (s *OrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.OrderStatus) (models.Order, error) {
	return s.transition(ctx, bson.M{
		"_id":    id,
		"status": bson.M{"$in": models.PreviousStatuses(next)},
	}, next)
}

// CancelForUser cancels a pending order owned by userID.
func (s *OrderStore) CancelForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	return s.transition(ctx, bson.M{
		"_id":    id,
		"userId": userID,
		"status": models.StatusPending,
	}, models.StatusCancelled)
}

func (s *OrderStore) transition(ctx context.Context, filter bson.M, next models.OrderStatus) (models.Order, error) {
	update := bson.M{"$set": bson.M{"status": next, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, err
	}

	// Tell "no such order" apart from "order in the wrong status".
	existsFilter := bson.M{"_id": filter["_id"]}
	if uid, ok := filter["userId"]; ok {
		existsFilter["userId"] = uid
	}
	if _, getErr := s.findOne(ctx, existsFilter); getErr != nil {
		return models.Order{}, getErr
	}
	return models.Order{}, models.ErrInvalidTransition
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.M) (models.Order, error) {
	var o models.Order
	if err := s.coll.FindOne(ctx, filter).Decode(&o); err != nil {
		return models.Order{}, translate(err)
	}
	return o, nil
}

func (s *OrderStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
