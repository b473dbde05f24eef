package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "learnerslogue-dev-secret-change-me"

type Config struct {
	Port    string
	GinMode string
	Store   string // "mongo" or "memory"

	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string

	MailFrom       string
	MailFromName   string
	SendGridAPIKey string

	CloudinaryURL    string
	CloudinaryFolder string

	ZoomAccountID    string
	ZoomClientID     string
	ZoomClientSecret string
	ZoomTimezone     string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
}

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over the file.
func Load(dotEnvPaths ...string) (*Config, error) {
	if len(dotEnvPaths) == 0 {
		dotEnvPaths = []string{".env"}
	}
	for _, p := range dotEnvPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", p, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", p, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE", "mongo")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "learnerslogue")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("MAIL_FROM", "noreply@localhost")
	v.SetDefault("MAIL_FROM_NAME", "Learners Logue")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_FOLDER", "learnerslogue")
	v.SetDefault("ZOOM_ACCOUNT_ID", "")
	v.SetDefault("ZOOM_CLIENT_ID", "")
	v.SetDefault("ZOOM_CLIENT_SECRET", "")
	v.SetDefault("ZOOM_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("VAPID_PUBLIC_KEY", "")
	v.SetDefault("VAPID_PRIVATE_KEY", "")
	v.SetDefault("VAPID_SUBJECT", "mailto:admin@learnerslogue.local")
	v.AutomaticEnv()

	cfg := &Config{
		Port:             v.GetString("PORT"),
		GinMode:          v.GetString("GIN_MODE"),
		Store:            strings.ToLower(v.GetString("STORE")),
		MongoURI:         v.GetString("MONGODB_URI"),
		MongoDatabase:    v.GetString("MONGODB_DATABASE"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		MailFrom:         v.GetString("MAIL_FROM"),
		MailFromName:     v.GetString("MAIL_FROM_NAME"),
		SendGridAPIKey:   v.GetString("SENDGRID_API_KEY"),
		CloudinaryURL:    v.GetString("CLOUDINARY_URL"),
		CloudinaryFolder: v.GetString("CLOUDINARY_FOLDER"),
		ZoomAccountID:    v.GetString("ZOOM_ACCOUNT_ID"),
		ZoomClientID:     v.GetString("ZOOM_CLIENT_ID"),
		ZoomClientSecret: v.GetString("ZOOM_CLIENT_SECRET"),
		ZoomTimezone:     v.GetString("ZOOM_TIMEZONE"),
		VAPIDPublicKey:   v.GetString("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey:  v.GetString("VAPID_PRIVATE_KEY"),
		VAPIDSubject:     v.GetString("VAPID_SUBJECT"),
	}

	if cfg.Store != "mongo" && cfg.Store != "memory" {
		return nil, fmt.Errorf("config: STORE must be mongo or memory, got %q", cfg.Store)
	}
	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET not set, using the development secret")
		cfg.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func (c *Config) ZoomEnabled() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
