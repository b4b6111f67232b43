package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment. It is
// loaded once in main and passed down explicitly; nothing below main
// touches os.Getenv.
type Config struct {
	ServerPort       string
	MongoURI         string
	MongoDBName      string
	JWTSecret        string
	AdminInviteToken string
	ClientURL        string
}

// Load reads .env (if present) and assembles the Config. Required values
// that are missing produce an error so startup fails fast.
func Load() (*Config, error) {
	// .env is optional in deployed environments where variables are injected.
	_ = godotenv.Load(".env")

	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "task_manager"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AdminInviteToken: os.Getenv("ADMIN_INVITE_TOKEN"),
		ClientURL:        getEnv("CLIENT_URL", "*"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
