package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"learnerslogue/database"
	"learnerslogue/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"
)

type Claims struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and checks HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	users  database.UserStore
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration, users database.UserStore) *Authenticator {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

func (a *Authenticator) GenerateToken(u *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		ID:    u.ID.Hex(),
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates the signature and expiry of a token.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if _, err := primitive.ObjectIDFromHex(claims.ID); err != nil {
		return nil, errors.New("token has no valid user id")
	}
	return claims, nil
}

// Middleware requires a bearer token for a user that still exists.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip middleware for OPTIONS requests (CORS preflight)
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "No authorization token provided")
			return
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Format should be: Bearer <token>")
			return
		}

		claims, err := a.ParseToken(parts[1])
		if err != nil {
			log.Printf("[Auth] JWT validation error: %v", err)
			abortUnauthorized(c, "Token validation failed")
			return
		}

		id, _ := primitive.ObjectIDFromHex(claims.ID)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		u, err := a.users.FindByID(ctx, id)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				log.Printf("[Auth] user lookup %s: %v", claims.ID, err)
			}
			abortUnauthorized(c, "User not found")
			return
		}

		c.Set(ctxUserID, u.ID.Hex())
		c.Set(ctxRole, string(u.Role))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "Authentication required",
		"code":    "UNAUTHORIZED",
		"message": msg,
	})
}

// CallerID returns the authenticated user set by Middleware.
func CallerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(ctxUserID))
	return id, err == nil
}

func CallerRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(ctxRole))
}
