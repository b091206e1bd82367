package controllers

import (
	"context"
	"net/http"
	"time"

	"giftshop/checkout"
	"giftshop/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u *models.User) error
}

type TokenBlacklist interface {
	Blacklist(ctx context.Context, token string, expiresAt time.Time) error
}

type TokenIssuer interface {
	Issue(userID primitive.ObjectID, email, role string) (string, time.Time, error)
}

type ProductRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TaxonomyRepository interface {
	List(ctx context.Context) ([]models.Taxon, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Taxon, error)
	Create(ctx context.Context, t *models.Taxon) error
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Taxon, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BlogRepository interface {
	List(ctx context.Context, f models.BlogFilter) ([]models.Blog, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Blog, error)
	GetPublishedBySlug(ctx context.Context, slug string) (models.Blog, error)
	Create(ctx context.Context, b *models.Blog) error
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (models.Blog, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CartRepository interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	Get(ctx context.Context, userID, productID primitive.ObjectID) (models.CartItem, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID, qty int) (models.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) error
	Remove(ctx context.Context, userID, productID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type WishlistRepository interface {
	Add(ctx context.Context, userID, productID primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.WishlistItem, error)
	Remove(ctx context.Context, userID, productID primitive.ObjectID) error
}

type OrderRepository interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	GetForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	List(ctx context.Context, status *models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, next models.OrderStatus) (models.Order, error)
	CancelForUser(ctx context.Context, id, userID primitive.ObjectID) (models.Order, error)
}

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req checkout.PlaceOrderRequest) (checkout.Result, error)
}

type Deps struct {
	Users      UserRepository
	Blacklist  TokenBlacklist
	Tokens     TokenIssuer
	Products   ProductRepository
	Categories TaxonomyRepository
	Occasions  TaxonomyRepository
	Blogs      BlogRepository
	Carts      CartRepository
	Wishlist   WishlistRepository
	Orders     OrderRepository
	Placer     OrderPlacer
	// IsAdminEmail decides the role given at registration.
	IsAdminEmail func(email string) bool
	// Ping reports store health for /healthz. Optional.
	Ping func(ctx context.Context) error
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Handler {
	if d.IsAdminEmail == nil {
		d.IsAdminEmail = func(string) bool { return false }
	}
	return &Handler{Deps: d, now: time.Now}
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const checkoutTimeout = 15 * time.Second

func requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return contextWithTimeout(c, 5*time.Second)
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
