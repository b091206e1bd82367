package store

import (
	"context"
	"strings"
	"time"

	"giftshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(coll *mongo.Collection) *UserStore {
	return &UserStore{coll: coll}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

// Create inserts u; ErrDuplicate means the email is already registered.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = time.Now().UTC()

	_, err := s.coll.InsertOne(ctx, u)
	return translate(err)
}

// TokenStore keeps logged-out JWTs until they would have expired.
type TokenStore struct {
	coll *mongo.Collection
}

func NewTokenStore(coll *mongo.Collection) *TokenStore {
	return &TokenStore{coll: coll}
}

func (s *TokenStore) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$setOnInsert": bson.M{"token": token, "expiresAt": expiresAt.UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	err := s.coll.FindOne(ctx, bson.M{"token": token}).Err()
	switch translate(err) {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}
