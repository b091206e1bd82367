package controllers

import (
	"errors"
	"net/http"

	"giftshop/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		badRequest(c, "Invalid productId")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if _, err := h.Products.Get(ctx, productID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.Wishlist.Add(ctx, userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to wishlist"})
}

func (h *Handler) GetWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	items, err := h.Wishlist.ListByUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, it := range items {
		entry := gin.H{"productId": it.ProductID, "addedAt": it.CreatedAt}
		p, err := h.Products.Get(ctx, it.ProductID)
		switch {
		case err == nil:
			entry["product"] = gin.H{
				"name":     p.Name,
				"price":    p.Price,
				"imageUrl": p.ImageURL,
				"inStock":  p.Purchasable(1),
			}
		case errors.Is(err, store.ErrNotFound):
			entry["product"] = nil
		default:
			respondError(c, err)
			return
		}
		resp = append(resp, entry)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": resp})
}

func (h *Handler) RemoveFromWishlist(c *gin.Context) {
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

	if err := h.Wishlist.Remove(ctx, userID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from wishlist"})
}

func (h *Handler) MoveWishlistToCart(c *gin.Context) {
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

	item, _, err := h.addToCart(ctx, userID, productID, 1)
	if err != nil {
		if errors.Is(err, errQuantityExceedsStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "Product is out of stock", "code": "PRODUCT_UNAVAILABLE"})
			return
		}
		respondError(c, err)
		return
	}
	if err := h.Wishlist.Remove(ctx, userID, productID); err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Moved to cart", "data": gin.H{
		"productId": item.ProductID,
		"quantity":  item.Quantity,
	}})
}
