package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"learnerslogue/middleware"
	"learnerslogue/models"
	"learnerslogue/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushRegistry is the push surface the handlers need.
type PushRegistry interface {
	PublicKey() string
	Subscribe(ctx context.Context, userID primitive.ObjectID, endpoint, p256dh, auth string) error
}

type TokenIssuer interface {
	GenerateToken(u *models.User) (string, error)
}

type Handler struct {
	svc    *services.Services
	tokens TokenIssuer
	push   PushRegistry
}

func New(svc *services.Services, tokens TokenIssuer, push PushRegistry) *Handler {
	return &Handler{svc: svc, tokens: tokens, push: push}
}

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// uploadContext leaves room for the object storage round trip.
func uploadContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 30*time.Second)
}

// respondError renders a service failure. Unknown errors are logged and
// hidden behind a generic 500.
func respondError(c *gin.Context, op string, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out", "code": "TIMEOUT", "message": "Request timed out"})
			return
		}
		log.Printf("[%s] %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL", "message": "Something went wrong"})
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindAuthorization:
		status = http.StatusUnauthorized
	case services.KindForbidden:
		status = http.StatusForbidden
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindExpired:
		status = http.StatusGone
	case services.KindUpstream:
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %v", op, err)
	}
	c.JSON(status, gin.H{"error": svcErr.Message, "code": svcErr.Code, "message": svcErr.Message})
}

// respondBindError renders a request that failed binding or validation.
func respondBindError(c *gin.Context, err error) {
	msg := err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = fieldMessage(verrs[0])
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "VALIDATION", "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "VALIDATION", "message": msg})
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

func caller(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID", "code": "UNAUTHORIZED", "message": "Invalid user ID"})
	}
	return id, ok
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
