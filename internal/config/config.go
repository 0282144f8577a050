package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rben01/covid19-sub000/internal/models"
)

type Config struct {
	Env string

	// Feed sources. Exactly one of URL/Path must be set per feed; a local
	// path wins when both are present.
	FeedURL  string
	FeedPath string
	GeoURL   string
	GeoPath  string

	// Chart output
	OutputDir string
	Scopes    []string

	// Ranking defaults
	TopN            int
	SmoothingWindow int

	// Playback and frame rendering
	PlaybackInterval time.Duration
	WorkerCount      int
	QueueSize        int

	HTTPTimeout time.Duration
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "development"),

		FeedURL:  getEnv("FEED_URL", ""),
		FeedPath: getEnv("FEED_PATH", ""),
		GeoURL:   getEnv("GEO_URL", ""),
		GeoPath:  getEnv("GEO_PATH", ""),

		TopN:            getEnvInt("TOP_N", models.DefaultTopN),
		SmoothingWindow: getEnvInt("SMOOTHING_WINDOW", models.MaxSmoothingWindow),

		PlaybackInterval: getEnvDuration("PLAYBACK_INTERVAL", 250*time.Millisecond),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		QueueSize:        getEnvInt("QUEUE_SIZE", 256),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
	}

	scopes := getEnv("SCOPES", "usa,world")
	for _, s := range strings.Split(scopes, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			cfg.Scopes = append(cfg.Scopes, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.OutputDir, err = getEnvRequired("OUTPUT_DIR"); err != nil {
		return nil, err
	}
	if cfg.FeedURL == "" && cfg.FeedPath == "" {
		return nil, fmt.Errorf("one of FEED_URL or FEED_PATH must be set")
	}
	if cfg.GeoURL == "" && cfg.GeoPath == "" {
		return nil, fmt.Errorf("one of GEO_URL or GEO_PATH must be set")
	}

	if cfg.TopN < 1 {
		cfg.TopN = models.DefaultTopN
	}
	if cfg.SmoothingWindow < 1 {
		cfg.SmoothingWindow = 1
	}
	if cfg.SmoothingWindow > models.MaxSmoothingWindow {
		cfg.SmoothingWindow = models.MaxSmoothingWindow
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
