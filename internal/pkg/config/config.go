package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the process configuration, read from the environment once at
// startup.
type Config struct {
	ServiceName string
	HTTPPort    int
	LogLevel    string

	MongoURI string
	MongoDB  string

	RedisAddr  string
	RPCTimeout time.Duration

	// ProductRPCChannel is the catalog service's request/reply channel.
	ProductRPCChannel string
	// InboundChannel is the channel other services push messages to us on.
	InboundChannel string
	// EventChannels are the targets domain events are published to.
	EventChannels []string

	OutboxPath     string
	OutboxInterval time.Duration

	// AppSecret signs and verifies the customer auth tokens.
	AppSecret string
}

func Load() Config {
	return Config{
		ServiceName:       getEnv("OTEL_SERVICE_NAME", "shopping-service"),
		HTTPPort:          getEnvInt("PORT", 8003),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getEnv("MONGO_DB", "shopping"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RPCTimeout:        getEnvDuration("RPC_TIMEOUT", 5*time.Second),
		ProductRPCChannel: getEnv("PRODUCT_RPC_CHANNEL", "PRODUCT_RPC"),
		InboundChannel:    getEnv("INBOUND_CHANNEL", "shopping_service"),
		EventChannels:     []string{getEnv("CUSTOMER_CHANNEL", "customer_service"), getEnv("ADMIN_CHANNEL", "admin_service")},
		OutboxPath:        getEnv("OUTBOX_PATH", "./data/outbox.db"),
		OutboxInterval:    getEnvDuration("OUTBOX_INTERVAL", time.Second),
		AppSecret:         getEnv("APP_SECRET", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
