package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port   string
	DBPath string // empty = memory-only history

	// Liveness
	OfflineAfter time.Duration
	PollInterval time.Duration
	EnablePoller bool

	// Chat front-end
	BotToken  string
	EnableBot bool

	// Weather collaborator
	WeatherKey  string
	WeatherCity string

	// Ingest guard
	IngestPerMinute int

	// Display timezone
	Timezone *time.Location
}

// Load reads configuration from the environment (and .env, if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("PORT", "10000"),
		DBPath:          getenv("DB_PATH", ""),
		OfflineAfter:    envDurSecs("OFFLINE_SECONDS", 310),
		PollInterval:    envDurSecs("POLL_SECONDS", 300),
		EnablePoller:    envBool("ENABLE_POLLER", true),
		BotToken:        getenv("BOT_TOKEN", ""),
		EnableBot:       envBool("ENABLE_BOT", true),
		WeatherKey:      getenv("WEATHER_KEY", ""),
		WeatherCity:     getenv("WEATHER_CITY", "Zaporizhzhia,UA"),
		IngestPerMinute: envInt("INGEST_PER_MINUTE", 60),
	}

	if cfg.EnableBot && cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required while ENABLE_BOT is true")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_SECONDS must be positive")
	}
	if cfg.OfflineAfter <= cfg.PollInterval/2 {
		// A threshold much shorter than the sweep period would flap.
		return nil, fmt.Errorf("OFFLINE_SECONDS (%v) is too short for POLL_SECONDS (%v)", cfg.OfflineAfter, cfg.PollInterval)
	}
	if cfg.IngestPerMinute <= 0 {
		// A zero-capacity limiter would reject every push.
		return nil, fmt.Errorf("INGEST_PER_MINUTE must be positive")
	}

	tzName := getenv("TIMEZONE", "Europe/Kyiv")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
