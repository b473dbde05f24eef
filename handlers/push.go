package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetVapidPublicKey(c *gin.Context) {
	if h.push == nil || h.push.PublicKey() == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "VAPID public key not configured",
			"code":    "PUSH_DISABLED",
			"message": "Contact administrator",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"publicKey": h.push.PublicKey(),
		"message":   "VAPID public key retrieved successfully",
	})
}

type SubscribePushRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

func (h *Handler) SubscribePush(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req SubscribePushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if h.push == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are disabled", "code": "PUSH_DISABLED", "message": "Push notifications are disabled"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.push.Subscribe(ctx, userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		log.Printf("[SubscribePush] failed to save subscription: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription", "code": "INTERNAL", "message": "Failed to save subscription"})
		return
	}

	log.Printf("Push subscription saved for user: %s", userID.Hex())
	c.JSON(http.StatusOK, gin.H{
		"message": "Push subscription saved successfully",
		"userId":  userID.Hex(),
	})
}
