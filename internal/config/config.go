package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/freshmart/api/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	PORT             string
	LOG_LEVEL        string
	DB_HOST          string
	DB_PORT          string
	DB_USER          string
	DB_PASSWORD      string
	DB_NAME          string
	SURREAL_URL      string
	SURREAL_USER     string
	SURREAL_PASSWORD string
	SURREAL_NS       string
	SURREAL_DB       string
	ES_URL           string
	ES_USER          string
	ES_PASSWORD      string
	KAFKA_ADDRESS    string
	IDP_SECRET       string
	ADMIN_EMAILS     []string
	MIRROR_RETRIES   int
	NOTIFY_TTL       time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:             getDefault("PORT", "8080"),
		LOG_LEVEL:        getDefault("LOG_LEVEL", "info"),
		DB_HOST:          os.Getenv("DB_HOST"),
		DB_PORT:          os.Getenv("DB_PORT"),
		DB_USER:          os.Getenv("DB_USER"),
		DB_PASSWORD:      os.Getenv("DB_PASSWORD"),
		DB_NAME:          os.Getenv("DB_NAME"),
		SURREAL_URL:      os.Getenv("SURREAL_URL"),
		SURREAL_USER:     os.Getenv("SURREAL_USER"),
		SURREAL_PASSWORD: os.Getenv("SURREAL_PASSWORD"),
		SURREAL_NS:       getDefault("SURREAL_NS", "freshmart"),
		SURREAL_DB:       getDefault("SURREAL_DB", "mirror"),
		ES_URL:           os.Getenv("ES_URL"),
		ES_USER:          os.Getenv("ES_USER"),
		ES_PASSWORD:      os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:    os.Getenv("KAFKA_ADDRESS"),
		IDP_SECRET:       os.Getenv("IDP_SECRET"),
		ADMIN_EMAILS:     splitList(os.Getenv("ADMIN_EMAILS")),
		MIRROR_RETRIES:   getIntDefault("MIRROR_RETRIES", 2),
	}

	if raw := os.Getenv("NOTIFY_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTIFY_TTL %q: %w", raw, err)
		}
		config.NOTIFY_TTL = ttl
	}

	return config, nil
}

func InitDB() (*gorm.DB, error) {
	configuration, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.Feedback{}, &models.PriceHistory{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func getDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
