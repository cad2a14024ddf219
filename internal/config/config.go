package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	StoreBackend string // "mysql" or "memory"
	RedisAddr    string
	AMQPURL      string
	Exchange     string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		StoreBackend: getenv("STORE_BACKEND", "mysql"),
		RedisAddr:    getenv("REDIS_ADDR", ""),
		AMQPURL:      getenv("RABBITMQ_URL", ""),
		Exchange:     getenv("RABBITMQ_EXCHANGE", "storefront.events"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
