package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"learnerslogue/models"
	"learnerslogue/services"

	"github.com/gin-gonic/gin"
)

// MilestoneRequest binds from JSON or multipart form fields.
type MilestoneRequest struct {
	Title       *string `json:"title" form:"title"`
	Date        *string `json:"date" form:"date"`
	Location    *string `json:"location" form:"location"`
	Type        *string `json:"type" form:"type"`
	Description *string `json:"description" form:"description"`
	AwardedBy   *string `json:"awardedBy" form:"awardedBy"`
	Grade       *string `json:"grade" form:"grade"`
}

func (r MilestoneRequest) input() (services.MilestoneInput, error) {
	in := services.MilestoneInput{
		Title:       r.Title,
		Location:    r.Location,
		Type:        r.Type,
		Description: r.Description,
		AwardedBy:   r.AwardedBy,
		Grade:       r.Grade,
	}
	if r.Date != nil && strings.TrimSpace(*r.Date) != "" {
		d, err := models.ParseDate(*r.Date)
		if err != nil {
			return in, err
		}
		in.Date = &d
	}
	return in, nil
}

func (h *Handler) GetMilestones(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ms, err := h.svc.Milestones.List(ctx, userID)
	if err != nil {
		respondError(c, "GetMilestones", err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

func (h *Handler) AddMilestone(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	in, img, closeImg, ok := bindMilestone(c)
	if !ok {
		return
	}
	defer closeImg()

	ctx, cancel := uploadContext(c)
	defer cancel()
	ms, err := h.svc.Milestones.Add(ctx, userID, in, img)
	if err != nil {
		respondError(c, "AddMilestone", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Milestone added", "milestone": ms})
}

func (h *Handler) UpdateMilestone(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	milestoneID, ok := paramID(c, "milestoneId")
	if !ok {
		return
	}
	in, img, closeImg, ok := bindMilestone(c)
	if !ok {
		return
	}
	defer closeImg()

	ctx, cancel := uploadContext(c)
	defer cancel()
	ms, err := h.svc.Milestones.Update(ctx, userID, milestoneID, in, img)
	if err != nil {
		respondError(c, "UpdateMilestone", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milestone updated", "milestone": ms})
}

func (h *Handler) DeleteMilestone(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	milestoneID, ok := paramID(c, "milestoneId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Milestones.Delete(ctx, userID, milestoneID); err != nil {
		respondError(c, "DeleteMilestone", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted"})
}

// bindMilestone reads the fields and the optional "image" file.
func bindMilestone(c *gin.Context) (services.MilestoneInput, *services.Image, func(), bool) {
	noop := func() {}
	var req MilestoneRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return services.MilestoneInput{}, nil, noop, false
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, "Invalid date")
		return in, nil, noop, false
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return in, nil, noop, true
	}
	if fh.Size > maxUploadBytes {
		badRequest(c, "File is too large")
		return in, nil, noop, false
	}
	var f multipart.File
	if f, err = fh.Open(); err != nil {
		badRequest(c, "Failed to read uploaded file")
		return in, nil, noop, false
	}
	return in, &services.Image{Reader: f, Filename: fh.Filename}, func() { f.Close() }, true
}

