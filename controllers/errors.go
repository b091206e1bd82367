package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"giftshop/auth"
	"giftshop/checkout"
	"giftshop/middleware"
	"giftshop/models"
	"giftshop/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type apiError struct {
	status  int
	code    string
	message string
}

func classify(err error) apiError {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, "UNAUTHENTICATED", "Invalid or expired token"}
	case errors.Is(err, checkout.ErrInvalidRequest), errors.Is(err, models.ErrInvalidStatus):
		return apiError{http.StatusBadRequest, "INVALID_REQUEST", err.Error()}
	case errors.Is(err, checkout.ErrEmptyCart):
		return apiError{http.StatusUnprocessableEntity, "EMPTY_CART", "Cart is empty"}
	case errors.Is(err, checkout.ErrProductUnavailable):
		return apiError{http.StatusConflict, "PRODUCT_UNAVAILABLE", err.Error()}
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		return apiError{http.StatusConflict, "CHECKOUT_IN_PROGRESS", "Another checkout is in progress"}
	case errors.Is(err, checkout.ErrPersistence):
		return apiError{http.StatusInternalServerError, "PERSISTENCE_FAILURE", "Failed to save order"}
	case errors.Is(err, store.ErrNotFound):
		return apiError{http.StatusNotFound, "NOT_FOUND", "Not found"}
	case errors.Is(err, store.ErrDuplicate):
		return apiError{http.StatusConflict, "CONFLICT", "Already exists"}
	case errors.Is(err, models.ErrInvalidTransition):
		return apiError{http.StatusConflict, "INVALID_TRANSITION", "Order status cannot be changed"}
	default:
		return apiError{http.StatusInternalServerError, "INTERNAL", "Internal server error"}
	}
}

func respondError(c *gin.Context, err error) {
	e := classify(err)
	if e.status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
	}
	c.AbortWithStatusJSON(e.status, gin.H{"error": e.message, "code": e.code})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "INVALID_REQUEST"})
}

// currentUser returns the authenticated user id, writing a 401 if there is none.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok || id.UserID.IsZero() {
		respondError(c, auth.ErrUnauthenticated)
		return primitive.NilObjectID, false
	}
	return id.UserID, true
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
