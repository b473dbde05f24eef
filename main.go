package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnerslogue/config"
	"learnerslogue/database"
	"learnerslogue/handlers"
	"learnerslogue/mailer"
	"learnerslogue/meeting"
	"learnerslogue/middleware"
	"learnerslogue/push"
	"learnerslogue/routes"
	"learnerslogue/services"
	"learnerslogue/storage"
	"learnerslogue/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("🚀 Starting LearnersLogue Backend Server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Config error: ", err)
	}

	// ===== STORAGE =====
	var stores *database.Stores
	var mongoDB *database.Mongo
	if cfg.Store == "memory" {
		log.Println("⚠️  Using the in-memory store, data is lost on restart")
		stores = database.NewMemoryStores()
	} else {
		log.Println("🔌 Connecting to MongoDB...")
		var dbErr error
		for i := 1; i <= 3; i++ {
			if mongoDB, dbErr = database.ConnectMongo(cfg.MongoURI, cfg.MongoDatabase); dbErr != nil {
				log.Printf("❌ MongoDB connection attempt %d failed: %v", i, dbErr)
				time.Sleep(2 * time.Second)
				continue
			}
			break
		}
		if dbErr != nil {
			log.Fatal("❌ Failed to connect to MongoDB: ", dbErr)
		}
		log.Println("✅ MongoDB connected successfully")
		stores = mongoDB.Stores()
	}

	// ===== COLLABORATORS =====
	var mail mailer.Mailer
	if cfg.SendGridAPIKey != "" {
		mail = mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFrom)
		log.Println("✅ SendGrid mailer enabled")
	} else {
		mail = mailer.NewConsole(nil)
		log.Println("⚠️  SENDGRID_API_KEY not set, emails are logged to the console")
	}

	deps := services.Deps{Stores: stores, Mailer: mail}

	if cfg.CloudinaryURL != "" {
		up, err := storage.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			log.Fatal("❌ Cloudinary configuration error: ", err)
		}
		deps.Uploader = up
	} else {
		log.Println("⚠️  CLOUDINARY_URL not set, uploads are disabled")
	}

	if cfg.ZoomEnabled() {
		zoom, err := meeting.NewZoom(meeting.Config{
			AccountID:    cfg.ZoomAccountID,
			ClientID:     cfg.ZoomClientID,
			ClientSecret: cfg.ZoomClientSecret,
			Timezone:     cfg.ZoomTimezone,
		})
		if err != nil {
			log.Fatal("❌ Zoom configuration error: ", err)
		}
		deps.Meetings = zoom
	} else {
		log.Println("⚠️  Zoom credentials not set, event creation is disabled")
	}

	pushSvc := push.NewService(stores.PushSubs, push.Keys{
		Public:  cfg.VAPIDPublicKey,
		Private: cfg.VAPIDPrivateKey,
		Subject: cfg.VAPIDSubject,
	})
	if !pushSvc.Enabled() {
		log.Println("⚠️  VAPID keys not set, run cmd/genvapid to create them")
	}
	deps.Push = pushSvc

	// ===== WEBSOCKET =====
	log.Println("🔌 Initializing WebSocket manager...")
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	wsManager := websocket.NewManager()
	go wsManager.Start(ctx)
	deps.Realtime = wsManager

	// ===== GIN MODE =====
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
		log.Println("⚙️ Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("⚙️ Running in DEBUG mode")
	}

	// ===== ROUTER =====
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.TokenTTL, stores.Users)
	h := handlers.New(services.New(deps), auth, pushSvc)
	router := routes.SetupRouter(h, routes.Options{
		Auth:        auth,
		CORSOrigins: cfg.CORSOrigins,
		Realtime:    websocket.WebSocketHandler(wsManager, auth),
	})
	log.Println("✅ WebSocket endpoint: /ws")

	// ===== SERVER CONFIG =====
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error: ", err)
		}
	}()

	log.Println("✅ Server is ready and accepting connections")

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}
	stop()
	if mongoDB != nil {
		if err := mongoDB.Disconnect(); err != nil {
			log.Println("❌ MongoDB disconnect:", err)
		}
	}

	log.Println("👋 Server stopped gracefully")
}
