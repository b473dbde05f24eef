package handlers

import (
	"net/http"
	"strings"

	"learnerslogue/models"
	"learnerslogue/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Role     string `json:"role" binding:"required,role"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
}

type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password" binding:"required"`
}

func (r LoginRequest) handle() string {
	for _, v := range []string{r.EmailOrPhone, r.Email, r.Phone} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Accounts.Register(ctx, services.NewUser{
		Role:     req.Role,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, "Register", err)
		return
	}
	token, err := h.tokens.GenerateToken(u)
	if err != nil {
		respondError(c, "Register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "token": token, "user": u})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Accounts.Authenticate(ctx, req.handle(), req.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}
	token, err := h.tokens.GenerateToken(u)
	if err != nil {
		respondError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": u})
}

type otpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Accounts.SendOTP(ctx, req.Email); err != nil {
		respondError(c, "SendOTP", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.OTP == "" {
		badRequest(c, "OTP is required")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Accounts.VerifyOTP(ctx, req.Email, req.OTP); err != nil {
		respondError(c, "VerifyOTP", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.OTP == "" || req.NewPassword == "" {
		badRequest(c, "OTP and new password are required")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Accounts.ResetPassword(ctx, req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(c, "ResetPassword", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.profile(c, id)
}

func (h *Handler) GetMe(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	h.profile(c, id)
}

func (h *Handler) profile(c *gin.Context, id primitive.ObjectID) {
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.svc.Accounts.Profile(ctx, id)
	if err != nil {
		respondError(c, "GetProfile", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type UpdateProfileRequest struct {
	FullName   *string `json:"fullName"`
	DOB        *string `json:"dob"`
	Gender     *string `json:"gender"`
	School     *string `json:"school"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	ProfilePic *string `json:"profilePic"`
	Role       *string `json:"role" binding:"omitempty,role"`
	Phone      *string `json:"phone"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	upd := services.ProfileUpdate{
		FullName:   req.FullName,
		Gender:     req.Gender,
		School:     req.School,
		City:       req.City,
		State:      req.State,
		ProfilePic: req.ProfilePic,
		Role:       req.Role,
		Phone:      req.Phone,
	}
	if req.DOB != nil && *req.DOB != "" {
		dob, err := models.ParseDate(*req.DOB)
		if err != nil {
			badRequest(c, "Invalid date of birth")
			return
		}
		upd.DOB = &dob
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.svc.Accounts.UpdateProfile(ctx, userID, id, upd)
	if err != nil {
		respondError(c, "UpdateProfile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": u})
}

func (h *Handler) Follow(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Follow.Follow(ctx, userID, target)
	if err != nil {
		respondError(c, "Follow", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Followed successfully", "following": u.Following})
}

func (h *Handler) Unfollow(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	target, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Follow.Unfollow(ctx, userID, target)
	if err != nil {
		respondError(c, "Unfollow", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed successfully", "following": u.Following})
}

const maxUploadBytes = 10 << 20

func (h *Handler) UploadProfilePic(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("profilePic")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if fh.Size > maxUploadBytes {
		badRequest(c, "File is too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	ctx, cancel := uploadContext(c)
	defer cancel()
	u, err := h.svc.Accounts.SetProfilePicture(ctx, userID, f, fh.Filename)
	if err != nil {
		respondError(c, "UploadProfilePic", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile picture updated", "profilePic": u.ProfilePic})
}
