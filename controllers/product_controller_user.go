package controllers

import (
	"net/http"
	"strconv"

	"giftshop/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxPageSize = 100

func (h *Handler) GetProductsPublic(c *gin.Context) {
	filter, ok := productFilter(c)
	if !ok {
		return
	}
	filter.ActiveOnly = true

	ctx, cancel := requestCtx(c)
	defer cancel()

	products, err := h.Products.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": products})
}

func (h *Handler) GetProductPublic(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !p.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "code": "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func productFilter(c *gin.Context) (models.ProductFilter, bool) {
	var f models.ProductFilter
	if v := c.Query("categoryId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			badRequest(c, "Invalid categoryId")
			return f, false
		}
		f.CategoryID = &id
	}
	if v := c.Query("occasionId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			badRequest(c, "Invalid occasionId")
			return f, false
		}
		f.OccasionID = &id
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 0 {
		badRequest(c, "Invalid limit")
		return f, false
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		badRequest(c, "Invalid skip")
		return f, false
	}
	f.Limit, f.Skip = limit, skip
	return f, true
}
