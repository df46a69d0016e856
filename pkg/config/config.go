package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int
	GRPCPort int

	MySQLDSN  string
	RedisAddr string

	KafkaBrokers string
	KafkaTopic   string

	// PaymentLatencyScale multiplies the simulated gateway latency; 0 disables it.
	PaymentLatencyScale float64
}

// Load reads the environment, after applying an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:              getEnv("APP_ENV", "dev"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		HTTPPort:            getEnvInt("HTTP_PORT", 8080),
		GRPCPort:            getEnvInt("GRPC_PORT", 8081),
		MySQLDSN:            os.Getenv("MYSQL_DSN"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		KafkaBrokers:        os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "storefront.orders"),
		PaymentLatencyScale: getEnvFloat("PAYMENT_LATENCY_SCALE", 1),
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

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}

	return f
}
