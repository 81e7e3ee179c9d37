package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded once at startup and passed
// explicitly to every component that needs it.
type Config struct {
	Port     int
	LogLevel string
	Env      string
	DB       DBConfig
	Payment  PaymentConfig
	Distance DistanceConfig
	Kafka    KafkaConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// PaymentConfig holds the pay calculation defaults
type PaymentConfig struct {
	RatePerMile     float64
	FactoringFeePct float64
}

// DistanceConfig holds the external distance-lookup service settings
type DistanceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// KafkaConfig holds the Kafka broker and topic settings
type KafkaConfig struct {
	Brokers       []string
	MovesTopic    string
	ConsumerGroup string
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))

	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))

	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	ratePerMile, err := strconv.ParseFloat(getEnv("RATE_PER_MILE", "2.10"), 64)

	if err != nil {
		return nil, fmt.Errorf("invalid RATE_PER_MILE: %w", err)
	}

	feePct, err := strconv.ParseFloat(getEnv("FACTORING_FEE_PCT", "0.03"), 64)

	if err != nil {
		return nil, fmt.Errorf("invalid FACTORING_FEE_PCT: %w", err)
	}

	distanceTimeout, err := strconv.Atoi(getEnv("DISTANCE_TIMEOUT_SECONDS", "5"))

	if err != nil {
		return nil, fmt.Errorf("invalid DISTANCE_TIMEOUT_SECONDS: %w", err)
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Env:      getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "trailerswap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Payment: PaymentConfig{
			RatePerMile:     ratePerMile,
			FactoringFeePct: feePct,
		},
		Distance: DistanceConfig{
			BaseURL: getEnv("DISTANCE_SERVICE_URL", "http://localhost:8090"),
			Timeout: time.Duration(distanceTimeout) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			MovesTopic:    getEnv("KAFKA_MOVES_TOPIC", "moves"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "trailer-swap-api"),
		},
	}, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
