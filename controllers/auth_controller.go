package controllers

import (
	"errors"
	"net/http"
	"strings"

	"giftshop/middleware"
	"giftshop/models"
	"giftshop/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		respondError(c, err)
		return
	}

	role := models.RoleCustomer
	if h.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Users.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered", "code": "CONFLICT"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := h.Users.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password", "code": "UNAUTHENTICATED"})
		return
	}

	token, exp, err := h.Tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
		"token":     token,
		"expiresAt": exp,
	})
}

// Logout runs behind AuthMiddleware, so the token is already known to be valid.
func (h *Handler) Logout(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	token := middleware.CurrentToken(c)
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required", "code": "UNAUTHENTICATED"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Blacklist.Blacklist(ctx, token, id.ExpiresAt); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
