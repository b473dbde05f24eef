package routes

import (
	"net/http"
	"strings"
	"time"

	"learnerslogue/handlers"
	"learnerslogue/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Options struct {
	Auth        *middleware.Authenticator
	CORSOrigins []string
	// OTPLimiter throttles the one-time password endpoints.
	OTPLimiter *middleware.IPRateLimiter
	// Realtime serves the websocket upgrade, if set.
	Realtime http.HandlerFunc
}

func SetupRouter(h *handlers.Handler, opts Options) *gin.Engine {
	handlers.RegisterValidators()
	router := gin.Default()

	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "LearnersLogue API Running 🚀",
			"service": "healthy",
		})
	})
	router.GET("/health", h.Health)

	if opts.Realtime != nil {
		router.GET("/ws", gin.WrapF(opts.Realtime))
	}

	limiter := opts.OTPLimiter
	if limiter == nil {
		limiter = middleware.NewIPRateLimiter(5, time.Minute)
	}
	authed := opts.Auth.Middleware()

	user := router.Group("/user")
	{
		user.POST("/register", h.Register)
		user.POST("/login", h.Login)
		user.POST("/send-otp", middleware.RateLimit(limiter), h.SendOTP)
		user.POST("/verify-otp", middleware.RateLimit(limiter), h.VerifyOTP)
		user.POST("/reset-password", middleware.RateLimit(limiter), h.ResetPassword)
		user.GET("/profile/:id", h.GetProfile)

		user.GET("/me", authed, h.GetMe)
		user.PUT("/updateProfile/:id", authed, h.UpdateProfile)
		user.POST("/follow/:id", authed, h.Follow)
		user.POST("/unfollow/:id", authed, h.Unfollow)
		user.POST("/uploadProfilePic", authed, h.UploadProfilePic)
	}

	milestone := router.Group("/milestone", authed)
	{
		milestone.GET("/milestones", h.GetMilestones)
		milestone.POST("/addMilestone", h.AddMilestone)
		milestone.PUT("/milestones/:milestoneId", h.UpdateMilestone)
		milestone.DELETE("/deleteMilestone/:milestoneId", h.DeleteMilestone)
	}

	posts := router.Group("/posts")
	{
		posts.GET("/all", h.GetAllPosts)

		posts.POST("/create", authed, h.CreatePost)
		posts.GET("/myPosts", authed, h.GetMyPosts)
		posts.PUT("/poll/vote", authed, h.VotePoll)
		posts.GET("/:postId/poll", authed, h.GetPollResult)
		posts.DELETE("/:postId/delete", authed, h.DeletePost)
		posts.PUT("/:postId/like", authed, h.ToggleLike)
		posts.POST("/:postId/comments", authed, h.AddComment)
		posts.GET("/:postId/getComments", authed, h.GetComments)
		posts.POST("/:postId/answers", authed, h.AddAnswer)
	}

	event := router.Group("/event", authed)
	{
		event.POST("/create", h.CreateEvent)
		event.GET("/getEvents", h.GetEvents)
		event.GET("/myEvents", h.GetMyEvents)
		event.POST("/register/:id", h.RegisterForEvent)
		event.DELETE("/unregister/:id", h.UnregisterFromEvent)
		event.DELETE("/delete/:id", h.DeleteEvent)
	}

	job := router.Group("/job")
	{
		job.POST("/create", authed, h.CreateJob)
		job.GET("/getAllJobs", h.GetAllJobs)
		job.GET("/getJob/:id", h.GetJob)
	}

	push := router.Group("/push")
	{
		push.GET("/vapid-public-key", h.GetVapidPublicKey)
		push.POST("/subscribe", authed, h.SubscribePush)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Endpoint not found",
			"code":    "NOT_FOUND",
			"path":    c.Request.URL.Path,
			"message": "Check the API documentation for available endpoints",
		})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		// credentials cannot be combined with a wildcard origin
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
