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

// TaxonomyStore serves both the categories and the occasions collections.
type TaxonomyStore struct {
	coll *mongo.Collection
}

func NewTaxonomyStore(coll *mongo.Collection) *TaxonomyStore {
	return &TaxonomyStore{coll: coll}
}

func (s *TaxonomyStore) List(ctx context.Context) ([]models.Taxon, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}

	out := []models.Taxon{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TaxonomyStore) Get(ctx context.Context, id primitive.ObjectID) (models.Taxon, error) {
	var t models.Taxon
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Taxon{}, translate(err)
	}
	return t, nil
}

func (s *TaxonomyStore) Create(ctx context.Context, t *models.Taxon) error {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.coll.InsertOne(ctx, t)
	return translate(err)
}

func (s *TaxonomyStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Taxon, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	var updated models.Taxon
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.Taxon{}, translate(err)
	}
	return updated, nil
}

func (s *TaxonomyStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
