package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port        string
	PostgresDSN string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	OpenAIAPIKey string
	OpenAIModel  string

	GoogleBooksURL string
	OpenLibraryURL string

	JWTSecret   string
	TokenExpiry time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func Load() *Config {
	// A missing .env file is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	return &Config{
		Port:        getenv("PORT", "8080"),
		PostgresDSN: getenv("POSTGRES_DSN", ""),

		MongoURI: getenv("MONGO_URI", ""),
		MongoDB:  getenv("MONGO_DB", "shelfscape"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "shelf-uploads"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4o-mini"),

		GoogleBooksURL: getenv("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
		OpenLibraryURL: getenv("OPEN_LIBRARY_URL", "https://openlibrary.org"),

		JWTSecret:   getenv("SECRET_KEY", ""),
		TokenExpiry: time.Duration(getenvInt("TOKEN_EXPIRY_HOURS", 1)) * time.Hour,

		LoginRateLimit:  getenvInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: time.Minute,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
