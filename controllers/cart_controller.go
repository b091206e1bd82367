package controllers

import (
	"context"
	"errors"
	"net/http"

	"giftshop/models"
	"giftshop/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type cartLine struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	Price     float64            `json:"price"`
	Quantity  int                `json:"quantity"`
	Subtotal  float64            `json:"subtotal"`
	Available bool               `json:"available"`
}

func (h *Handler) AddToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	if body.Quantity < 0 {
		badRequest(c, "Quantity must be at least 1")
		return
	}
	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		badRequest(c, "Invalid productId")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	item, product, err := h.addToCart(ctx, userID, productID, body.Quantity)
	if err != nil {
		if errors.Is(err, errQuantityExceedsStock) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity exceeds available stock", "code": "INVALID_REQUEST"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "data": gin.H{
		"cartId":    item.ID,
		"productId": item.ProductID,
		"quantity":  item.Quantity,
		"product": gin.H{
			"name":  product.Name,
			"price": product.Price,
			"stock": product.Stock,
		},
		"subtotal": lineSubtotal(product.Price, item.Quantity).InexactFloat64(),
	}})
}

var errQuantityExceedsStock = errors.New("quantity exceeds available stock")

// addToCart checks the resulting line quantity against live stock before upserting.
func (h *Handler) addToCart(ctx context.Context, userID, productID primitive.ObjectID, qty int) (models.CartItem, models.Product, error) {
	product, err := h.Products.Get(ctx, productID)
	if err != nil {
		return models.CartItem{}, models.Product{}, err
	}
	if !product.Active {
		return models.CartItem{}, models.Product{}, store.ErrNotFound
	}

	existing := 0
	if line, err := h.Carts.Get(ctx, userID, productID); err == nil {
		existing = line.Quantity
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.CartItem{}, models.Product{}, err
	}
	if !product.Purchasable(existing + qty) {
		return models.CartItem{}, models.Product{}, errQuantityExceedsStock
	}

	item, err := h.Carts.Add(ctx, userID, productID, qty)
	if err != nil {
		return models.CartItem{}, models.Product{}, err
	}
	return item, product, nil
}

func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Carts.ListByUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	lines := make([]cartLine, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		line := cartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		p, err := h.Products.Get(ctx, it.ProductID)
		switch {
		case err == nil:
			sub := lineSubtotal(p.Price, it.Quantity)
			line.Name, line.Price = p.Name, p.Price
			line.Subtotal = sub.InexactFloat64()
			line.Available = p.Purchasable(it.Quantity)
			if line.Available {
				total = total.Add(sub)
			}
		case errors.Is(err, store.ErrNotFound):
			// Product was deleted; the line stays so the user can remove it.
		default:
			respondError(c, err)
			return
		}
		lines = append(lines, line)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": gin.H{
		"items": lines,
		"total": total.Round(2).InexactFloat64(),
	}})
}

func (h *Handler) UpdateCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || *body.Quantity < 0 {
		badRequest(c, "Invalid quantity")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if *body.Quantity == 0 {
		if err := h.Carts.Remove(ctx, userID, productID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
		return
	}

	product, err := h.Products.Get(ctx, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !product.Purchasable(*body.Quantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity exceeds available stock", "code": "INVALID_REQUEST"})
		return
	}
	if err := h.Carts.SetQuantity(ctx, userID, productID, *body.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "data": gin.H{
		"productId": productID,
		"quantity":  *body.Quantity,
		"subtotal":  lineSubtotal(product.Price, *body.Quantity).InexactFloat64(),
	}})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Carts.Remove(ctx, userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from cart"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Carts.DeleteByUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "removed": n})
}

func lineSubtotal(price float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(price).Round(2).Mul(decimal.NewFromInt(int64(qty)))
}
