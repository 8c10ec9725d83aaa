package config

import (
	"errors"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatasetPath       string
	DatasetDelimiter  rune
	HistoryCutoffYear int
	ViewCacheSize     int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Kafka view sink configuration.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaViewsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	delimiter, err := parseDelimiter(sharedcfg.EnvOrDefault("DATASET_DELIMITER", ","))
	if err != nil {
		return nil, err
	}

	cutoff, err := parsePositiveInt("HISTORY_CUTOFF_YEAR", 2025)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("VIEW_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatasetPath:       sharedcfg.EnvOrDefault("DATASET_PATH", "data/Aforos-RedPropia.csv"),
		DatasetDelimiter:  delimiter,
		HistoryCutoffYear: cutoff,
		ViewCacheSize:     cacheSize,
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaViewsTopic:   sharedcfg.EnvOrDefault("KAFKA_VIEWS_TOPIC", "dashboard-views"),
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaViewsTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_VIEWS_TOPIC is empty")
	}

	return cfg, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) || r == '"' || r == '\n' || r == '\r' {
		return 0, errors.New("invalid DATASET_DELIMITER: must be a single character")
	}
	return r, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key + ": must be a positive integer")
	}
	return n, nil
}
