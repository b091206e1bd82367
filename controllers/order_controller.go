package controllers

import (
	"errors"
	"io"
	"net/http"

	"giftshop/checkout"
	"giftshop/models"

	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type checkoutBody struct {
	ContactEmail string                 `json:"contactEmail" binding:"omitempty,email"`
	Delivery     models.DeliveryDetails `json:"delivery"`
}

func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body")
		return
	}

	req, err := checkout.NewPlaceOrderRequest(checkout.PlaceOrderInput{
		UserID:         userID.Hex(),
		ContactEmail:   body.ContactEmail,
		Delivery:       body.Delivery,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}, h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	// Checkout touches several collections, so it gets a longer budget than plain reads.
	ctx, cancel := contextWithTimeout(c, checkoutTimeout)
	defer cancel()

	res, err := h.Placer.PlaceOrder(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	msg := "Checkout success"
	if res.Replayed {
		status = http.StatusOK
		msg = "Checkout already processed"
	}
	c.JSON(status, gin.H{
		"message":     msg,
		"order":       res.Order,
		"cartCleared": res.CartCleared,
	})
}

func (h *Handler) GetOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := h.Orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := h.Orders.CancelForUser(ctx, orderID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "data": order})
}
