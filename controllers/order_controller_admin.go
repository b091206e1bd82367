package controllers

import (
	"net/http"

	"giftshop/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetOrdersAdmin(c *gin.Context) {
	var status *models.OrderStatus
	if v := c.Query("status"); v != "" {
		st, err := models.ParseOrderStatus(v)
		if err != nil {
			respondError(c, err)
			return
		}
		status = &st
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	orders, err := h.Orders.List(ctx, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": orders})
}

func (h *Handler) GetOrderByIDAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := h.Orders.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Status is required")
		return
	}
	next, err := models.ParseOrderStatus(body.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, id, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "data": order})
}

func (h *Handler) CancelOrderAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, id, models.StatusCancelled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "data": order})
}
