package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL is the SQLite DSN of the complaint record store.
	DatabaseURL string
	// RefreshInterval is how often the dataset watcher polls for new records.
	// Zero disables the watcher.
	RefreshInterval time.Duration

	// Kafka ingest and model event configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Open-Meteo temperature lookup configuration.
	WeatherEnabled   bool
	WeatherBaseURL   string
	WeatherLatitude  float64
	WeatherLongitude float64
	WeatherTimezone  string
	WeatherTimeout   time.Duration
	WeatherCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m", true)
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}

	latitude, err := parseFloat("WEATHER_LATITUDE", "32.35", -90, 90)
	if err != nil {
		return nil, err
	}
	longitude, err := parseFloat("WEATHER_LONGITUDE", "34.90", -180, 180)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:     sharedcfg.EnvOrDefault("DATABASE_URL", "file:complaints.db?_pragma=busy_timeout(5000)"),
		RefreshInterval: refreshInterval,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-complaints"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "complaint-model-events"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "complaint-forecast"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WeatherEnabled:   os.Getenv("WEATHER_ENABLED") == "true",
		WeatherBaseURL:   sharedcfg.EnvOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com"),
		WeatherLatitude:  latitude,
		WeatherLongitude: longitude,
		WeatherTimezone:  sharedcfg.EnvOrDefault("WEATHER_TIMEZONE", "Asia/Jerusalem"),
		WeatherTimeout:   weatherTimeout,
		WeatherCacheSize: parseWeatherCacheSize(),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.WeatherEnabled {
		if _, err := time.LoadLocation(cfg.WeatherTimezone); err != nil {
			return nil, fmt.Errorf("invalid WEATHER_TIMEZONE: %w", err)
		}
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseWeatherCacheSize() int {
	if s := os.Getenv("WEATHER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 64
}
