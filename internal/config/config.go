package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth (seed user, created when the users table is empty)
	SeedUsername    string
	SeedPassword    string // plaintext in env, bcrypt-hashed before storage
	SeedDisplayName string
	SeedRole        string
	JWTSecret       string

	// Chatbot webhooks, one endpoint per chat mode
	WebhookEkarBotAI       string
	WebhookHybrid          string
	WebhookPropertyListing string
	WebhookTimeoutSeconds  int

	// Media storage (Cloudinary signed uploads)
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// Import
	ImportMaxRows int
}

func Load() *Config {
	webhookTimeout, _ := strconv.Atoi(getEnv("WEBHOOK_TIMEOUT_SECONDS", "120"))
	importMaxRows, _ := strconv.Atoi(getEnv("IMPORT_MAX_ROWS", "5000"))
	return &Config{
		Port:                   getEnv("PORT", "8090"),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPassword:             getEnv("DB_PASSWORD", ""),
		DBName:                 getEnv("DB_NAME", "ekarbot_db"),
		DBSSLMode:              getEnv("DB_SSLMODE", "disable"),
		SeedUsername:           getEnv("SEED_USERNAME", "manager"),
		SeedPassword:           getEnv("SEED_PASSWORD", ""),
		SeedDisplayName:        getEnv("SEED_DISPLAY_NAME", "User Manager"),
		SeedRole:               getEnv("SEED_ROLE", "user_manager"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		WebhookEkarBotAI:       getEnv("WEBHOOK_EKARBOT_AI", ""),
		WebhookHybrid:          getEnv("WEBHOOK_HYBRID", ""),
		WebhookPropertyListing: getEnv("WEBHOOK_PROPERTY_LISTING", ""),
		WebhookTimeoutSeconds:  webhookTimeout,
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:       getEnv("CLOUDINARY_FOLDER", "ekarbot"),
		ImportMaxRows:          importMaxRows,
	}
}

// WebhookURL returns the endpoint for a chat mode. Unknown modes fall back
// to the hybrid endpoint.
func (c *Config) WebhookURL(mode string) string {
	switch mode {
	case "ekarbot-ai":
		return c.WebhookEkarBotAI
	case "property-listing":
		return c.WebhookPropertyListing
	default:
		return c.WebhookHybrid
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
