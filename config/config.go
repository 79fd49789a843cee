package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port        string
	Environment string
	SiteOrigin  string

	// Mongo
	MongoURI string
	MongoDB  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Identity verification
	JWTSecret string

	// Checkout processor
	CheckoutAPIURL    string
	CheckoutSecretKey string
	CheckoutTimeout   time.Duration

	// Store
	ConnectTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "5016"),
		Environment: getEnv("ENVIRONMENT", "development"),
		SiteOrigin:  getEnv("SITE_ORIGIN", "http://localhost:5173"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "style-decor-db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CheckoutAPIURL:    getEnv("CHECKOUT_API_URL", "https://api.checkout.example.com/v1"),
		CheckoutSecretKey: getEnv("CHECKOUT_SECRET_KEY", ""),
		CheckoutTimeout:   getEnvAsDuration("CHECKOUT_TIMEOUT", "10s"),

		ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", "10s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	raw := getEnv(key, defaultValue)
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}
