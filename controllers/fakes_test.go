package controllers

import (
	"context"
	"sync"
	"time"

	"giftshop/models"
	"giftshop/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memOrders struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Order
}

func (m *memOrders) put(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[o.ID] = o
}

func (m *memOrders) status(id primitive.ObjectID) models.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Status
}

func (m *memOrders) Get(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) GetForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	o, err := m.Get(ctx, id)
	if err != nil || o.UserID != userID {
		return models.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.items {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) List(_ context.Context, status *models.OrderStatus) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.items {
		if status == nil || o.Status == *status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, next models.OrderStatus) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return models.Order{}, store.ErrNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return models.Order{}, models.ErrInvalidTransition
	}
	o.Status = next
	m.items[id] = o
	return o, nil
}

func (m *memOrders) CancelForUser(_ context.Context, id, userID primitive.ObjectID) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || o.UserID != userID {
		return models.Order{}, store.ErrNotFound
	}
	if o.Status != models.StatusPending {
		return models.Order{}, models.ErrInvalidTransition
	}
	o.Status = models.StatusCancelled
	m.items[id] = o
	return o, nil
}

type memBlogs struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Blog
}

func (m *memBlogs) List(_ context.Context, f models.BlogFilter) ([]models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Blog{}
	for _, b := range m.items {
		if f.PublishedOnly && !b.Published {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBlogs) Get(_ context.Context, id primitive.ObjectID) (models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return models.Blog{}, store.ErrNotFound
	}
	return b, nil
}

func (m *memBlogs) GetPublishedBySlug(_ context.Context, slug string) (models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.items {
		if b.Slug == slug && b.Published {
			return b, nil
		}
	}
	return models.Blog{}, store.ErrNotFound
}

func (m *memBlogs) Create(_ context.Context, b *models.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Slug == b.Slug {
			return store.ErrDuplicate
		}
	}
	b.ID = primitive.NewObjectID()
	m.items[b.ID] = *b
	return nil
}

func (m *memBlogs) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (models.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return models.Blog{}, store.ErrNotFound
	}
	if v, ok := fields["title"].(string); ok {
		b.Title = v
	}
	if v, ok := fields["published"].(bool); ok {
		b.Published = v
	}
	if v, ok := fields["publishedAt"].(time.Time); ok {
		b.PublishedAt = &v
	}
	m.items[id] = b
	return b, nil
}

func (m *memBlogs) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	byKey map[string]models.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byKey[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[u.Email]; ok {
		return store.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	m.byKey[u.Email] = *u
	return nil
}

type memBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func (m *memBlacklist) Blacklist(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = expiresAt
	return nil
}

func (m *memBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok, nil
}
