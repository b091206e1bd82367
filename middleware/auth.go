package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"giftshop/auth"

	"github.com/gin-gonic/gin"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, header string) (auth.Identity, string, error)
}

func AuthMiddleware(tokens Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		id, token, err := tokens.Authenticate(ctx, c.GetHeader("Authorization"))
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				slog.ErrorContext(c.Request.Context(), "authenticate request", slog.String("error", err.Error()))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "UNAUTHENTICATED"})
			return
		}

		c.Set(identityKey, id)
		c.Set(tokenKey, token)
		c.Next()
	}
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: admin only", "code": "FORBIDDEN"})
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller resolved by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
