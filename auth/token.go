package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID    primitive.ObjectID
	Email     string
	Role      string
	ExpiresAt time.Time
}

func (i Identity) IsAdmin() bool { return i.Role == "admin" }

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Blacklist answers whether a token was revoked by logout.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type Tokens struct {
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist
	now       func() time.Time
}

func NewTokens(secret string, ttl time.Duration, blacklist Blacklist) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, blacklist: blacklist, now: time.Now}
}

func (t *Tokens) Issue(userID primitive.ObjectID, email, role string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.Hex(),
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates signature and expiry and maps the claims to an Identity.
func (t *Tokens) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	}

	uid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: malformed subject", ErrUnauthenticated)
	}

	id := Identity{UserID: uid, Email: claims.Email, Role: claims.Role}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Authenticate resolves an Authorization header value to an Identity,
// rejecting revoked tokens.
func (t *Tokens) Authenticate(ctx context.Context, header string) (Identity, string, error) {
	tokenString := BearerToken(header)
	if tokenString == "" {
		return Identity{}, "", fmt.Errorf("%w: token required", ErrUnauthenticated)
	}

	if t.blacklist != nil {
		revoked, err := t.blacklist.IsBlacklisted(ctx, tokenString)
		if err != nil {
			return Identity{}, "", fmt.Errorf("check token blacklist: %w", err)
		}
		if revoked {
			return Identity{}, "", fmt.Errorf("%w: token has been revoked", ErrUnauthenticated)
		}
	}

	id, err := t.Parse(tokenString)
	if err != nil {
		return Identity{}, "", err
	}
	return id, tokenString, nil
}

func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
