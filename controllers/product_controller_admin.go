package controllers

import (
	"net/http"
	"strings"

	"giftshop/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price"`
	Stock       *int      `json:"stock"`
	Active      *bool     `json:"active"`
	CategoryID  *string   `json:"categoryId"`
	OccasionIDs *[]string `json:"occasionIds"`
	ImageURL    *string   `json:"imageUrl"`
}

// fields validates the input and returns the bson fields it sets.
func (in productInput) fields() (bson.M, string) {
	set := bson.M{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, "Name must not be empty"
		}
		set["name"] = name
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, "Price must not be negative"
		}
		if !isCents(*in.Price) {
			return nil, "Price must have at most two decimal places"
		}
		set["price"] = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, "Stock must not be negative"
		}
		set["stock"] = *in.Stock
	}
	if in.Active != nil {
		set["active"] = *in.Active
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			set["categoryId"] = nil
		} else {
			id, err := primitive.ObjectIDFromHex(*in.CategoryID)
			if err != nil {
				return nil, "Invalid categoryId"
			}
			set["categoryId"] = id
		}
	}
	if in.OccasionIDs != nil {
		ids := make([]primitive.ObjectID, 0, len(*in.OccasionIDs))
		for _, s := range *in.OccasionIDs {
			id, err := primitive.ObjectIDFromHex(s)
			if err != nil {
				return nil, "Invalid occasionId"
			}
			ids = append(ids, id)
		}
		set["occasionIds"] = ids
	}
	if in.ImageURL != nil {
		set["imageUrl"] = strings.TrimSpace(*in.ImageURL)
	}
	return set, ""
}

// isCents reports whether price has at most two decimal places.
func isCents(price float64) bool {
	d := decimal.NewFromFloat(price)
	return d.Equal(d.Round(2))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if in.Name == nil || in.Price == nil {
		badRequest(c, "Name and price are required")
		return
	}
	set, msg := in.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	p := models.Product{Active: true}
	p.Name, _ = set["name"].(string)
	p.Description, _ = set["description"].(string)
	p.Price, _ = set["price"].(float64)
	p.Stock, _ = set["stock"].(int)
	p.ImageURL, _ = set["imageUrl"].(string)
	if v, ok := set["active"].(bool); ok {
		p.Active = v
	}
	if v, ok := set["categoryId"].(primitive.ObjectID); ok {
		p.CategoryID = &v
	}
	if v, ok := set["occasionIds"].([]primitive.ObjectID); ok {
		p.OccasionIDs = v
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Products.Create(ctx, &p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "data": p})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	set, msg := in.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}
	if len(set) == 0 {
		badRequest(c, "Nothing to update")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Products.Update(ctx, id, set)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "data": p})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// GetProductsAdmin lists every product, inactive ones included.
func (h *Handler) GetProductsAdmin(c *gin.Context) {
	filter, ok := productFilter(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	products, err := h.Products.List(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fetch success", "data": products})
}
