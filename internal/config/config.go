// Package config loads service configuration from the environment.
//
// A .env file in the working directory is loaded first when present
// (development convenience); real environments set variables directly.
// Services fail fast at startup when a required variable is absent.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by all services.
type Config struct {
	// MongoURI is the connection string for the shared document database.
	// Required by every service that touches storage.
	MongoURI string

	// GeminiAPIKey authenticates calls to the external vision model.
	// Required by the receipt service only.
	GeminiAPIKey string

	// Port is the HTTP listen port, from PORT with a per-service default.
	Port string
}

// Load reads configuration for a service listening on defaultPort by
// default. Validation of required fields is the caller's choice via
// RequireMongo / RequireGemini, since not every service needs every value.
func Load(defaultPort string) *Config {
	// Missing .env is fine; env vars may be set directly.
	godotenv.Load(".env")

	return &Config{
		MongoURI:     os.Getenv("MONGODB_URI"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Port:         getEnv("PORT", defaultPort),
	}
}

// RequireMongo errors when no database connection string is configured.
func (c *Config) RequireMongo() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI environment variable is not set")
	}
	return nil
}

// RequireGemini errors when no model API key is configured.
func (c *Config) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
