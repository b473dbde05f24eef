package handlers

import (
	"net/http"

	"learnerslogue/services"

	"github.com/gin-gonic/gin"
)

type CreateJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Company      string   `json:"company" binding:"required"`
	Type         string   `json:"type" binding:"omitempty,jobtype"`
	Description  string   `json:"description" binding:"required"`
	Location     string   `json:"location"`
	Duration     string   `json:"duration"`
	Deadline     string   `json:"deadline"`
	Applicants   string   `json:"applicants"`
	Stipend      string   `json:"stipend"`
	Requirements []string `json:"requirements"`
	Tags         []string `json:"tags"`
}

func (h *Handler) CreateJob(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.svc.Jobs.Create(ctx, userID, services.NewJob(req))
	if err != nil {
		respondError(c, "CreateJob", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job created", "job": job})
}

func (h *Handler) GetAllJobs(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	jobs, err := h.svc.Jobs.List(ctx)
	if err != nil {
		respondError(c, "GetAllJobs", err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) GetJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	job, err := h.svc.Jobs.Get(ctx, id)
	if err != nil {
		respondError(c, "GetJob", err)
		return
	}
	c.JSON(http.StatusOK, job)
}
