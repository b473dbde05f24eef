package handlers

import (
	"net/http"

	"learnerslogue/services"

	"github.com/gin-gonic/gin"
)

type CreateEventRequest struct {
	Title           string   `json:"title" binding:"required"`
	Type            string   `json:"type" binding:"required,eventtype"`
	Description     string   `json:"description"`
	Date            string   `json:"date" binding:"required"`
	Time            string   `json:"time" binding:"required"`
	Duration        int      `json:"duration" binding:"omitempty,min=1"`
	Tags            []string `json:"tags"`
	Price           float64  `json:"price" binding:"omitempty,min=0"`
	MaxParticipants int      `json:"maxParticipants" binding:"omitempty,min=1"`
}

func (h *Handler) CreateEvent(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, cancel := uploadContext(c)
	defer cancel()
	event, err := h.svc.Events.Create(ctx, userID, services.NewEvent{
		Title:           req.Title,
		Type:            req.Type,
		Description:     req.Description,
		Date:            req.Date,
		Time:            req.Time,
		Duration:        req.Duration,
		Tags:            req.Tags,
		Price:           req.Price,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		respondError(c, "CreateEvent", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "event": event})
}

func (h *Handler) GetEvents(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	events, err := h.svc.Events.List(ctx, userID)
	if err != nil {
		respondError(c, "GetEvents", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetMyEvents(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	events, err := h.svc.Events.Hosted(ctx, userID)
	if err != nil {
		respondError(c, "GetMyEvents", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) RegisterForEvent(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := uploadContext(c)
	defer cancel()

	count, err := h.svc.Events.Register(ctx, userID, eventID)
	if err != nil {
		respondError(c, "RegisterForEvent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meeting link sent to your email.", "registrationCount": count})
}

func (h *Handler) UnregisterFromEvent(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := h.svc.Events.Unregister(ctx, userID, eventID)
	if err != nil {
		respondError(c, "UnregisterFromEvent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unregistered successfully", "registrationCount": count})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Events.Delete(ctx, userID, eventID); err != nil {
		respondError(c, "DeleteEvent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
