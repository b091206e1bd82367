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

type BlogStore struct {
	coll *mongo.Collection
}

func NewBlogStore(coll *mongo.Collection) *BlogStore {
	return &BlogStore{coll: coll}
}

// List returns posts newest first; published posts sort by publish date.
func (s *BlogStore) List(ctx context.Context, f models.BlogFilter) ([]models.Blog, error) {
	filter := bson.M{}
	sort := bson.D{{Key: "createdAt", Value: -1}}
	if f.PublishedOnly {
		filter["published"] = true
		sort = bson.D{{Key: "publishedAt", Value: -1}}
	}

	opts := options.Find().SetSort(sort)
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	out := []models.Blog{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BlogStore) Get(ctx context.Context, id primitive.ObjectID) (models.Blog, error) {
	var b models.Blog
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return models.Blog{}, translate(err)
	}
	return b, nil
}

func (s *BlogStore) GetPublishedBySlug(ctx context.Context, slug string) (models.Blog, error) {
	var b models.Blog
	if err := s.coll.FindOne(ctx, bson.M{"slug": slug, "published": true}).Decode(&b); err != nil {
		return models.Blog{}, translate(err)
	}
	return b, nil
}

// Create inserts b; ErrDuplicate means the slug is taken.
func (s *BlogStore) Create(ctx context.Context, b *models.Blog) error {
	now := time.Now().UTC()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Published && b.PublishedAt == nil {
		b.PublishedAt = &now
	}

	_, err := s.coll.InsertOne(ctx, b)
	return translate(err)
}

func (s *BlogStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Blog, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	var updated models.Blog
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return models.Blog{}, translate(err)
	}
	return updated, nil
}

func (s *BlogStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
