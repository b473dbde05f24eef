package handlers

import (
	"context"
	"net/http"
	"time"

	"learnerslogue/models"
	"learnerslogue/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreatePostRequest struct {
	Type          string   `json:"type" binding:"omitempty,posttype"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Visibility    string   `json:"visibility" binding:"omitempty,visibility"`
	PollOptions   []string `json:"pollOptions"`
	PollExpiresAt string   `json:"pollExpiresAt"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	in := services.NewPost{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Visibility:  req.Visibility,
		PollOptions: req.PollOptions,
	}
	if req.PollExpiresAt != "" {
		exp, err := models.ParseDate(req.PollExpiresAt)
		if err != nil {
			badRequest(c, "Invalid poll expiry")
			return
		}
		in.PollExpiresAt = &exp
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	post, err := h.svc.Feed.CreatePost(ctx, userID, in)
	if err != nil {
		respondError(c, "CreatePost", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

func (h *Handler) GetAllPosts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.svc.Feed.ListPublic(ctx)
	if err != nil {
		respondError(c, "GetAllPosts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetMyPosts(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.svc.Feed.ListByAuthor(ctx, userID)
	if err != nil {
		respondError(c, "GetMyPosts", err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Feed.DeletePost(ctx, userID, postID); err != nil {
		respondError(c, "DeletePost", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *Handler) ToggleLike(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	likes, err := h.svc.Feed.ToggleLike(ctx, postID, userID)
	if err != nil {
		respondError(c, "ToggleLike", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes, "liked": models.ContainsID(likes, userID)})
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) AddComment(c *gin.Context) {
	h.addReply(c, "AddComment", h.svc.Feed.AddComment, "comments")
}

func (h *Handler) AddAnswer(c *gin.Context) {
	h.addReply(c, "AddAnswer", h.svc.Feed.AddAnswer, "answers")
}

type replyFunc func(ctx context.Context, postID, userID primitive.ObjectID, text string) ([]models.Comment, error)

func (h *Handler) addReply(c *gin.Context, op string, add replyFunc, key string) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	replies, err := add(ctx, postID, userID, req.Text)
	if err != nil {
		respondError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{key: replies})
}

func (h *Handler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comments, err := h.svc.Feed.Comments(ctx, postID)
	if err != nil {
		respondError(c, "GetComments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type VoteRequest struct {
	PostID      string `json:"postId" binding:"required,objectid"`
	OptionIndex *int   `json:"optionIndex" binding:"required"`
}

func (h *Handler) VotePoll(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	postID, _ := primitive.ObjectIDFromHex(req.PostID)

	ctx, cancel := requestContext(c)
	defer cancel()
	res, err := h.svc.Polls.Vote(ctx, postID, *req.OptionIndex, userID)
	if err != nil {
		respondError(c, "VotePoll", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded", "post": res.Post, "pollResult": res.Tally})
}

func (h *Handler) GetPollResult(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	tally, err := h.svc.Polls.Tally(ctx, postID)
	if err != nil {
		respondError(c, "GetPollResult", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pollResult": tally, "checkedAt": time.Now().UTC()})
}
