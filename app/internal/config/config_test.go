package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "10000" {
		t.Errorf("unexpected default port %q", cfg.Port)
	}
	if cfg.OfflineAfter != 310*time.Second {
		t.Errorf("unexpected default offline threshold %v", cfg.OfflineAfter)
	}
	if cfg.PollInterval != 300*time.Second {
		t.Errorf("unexpected default poll interval %v", cfg.PollInterval)
	}
	if cfg.DBPath != "" {
		t.Errorf("expected memory-only default, got DBPath=%q", cfg.DBPath)
	}
	if cfg.Timezone == nil || cfg.Timezone.String() != "Europe/Kyiv" {
		t.Errorf("unexpected default timezone %v", cfg.Timezone)
	}
	if !cfg.EnableBot || !cfg.EnablePoller {
		t.Error("bot and poller should default to enabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("PORT", "8080")
	t.Setenv("OFFLINE_SECONDS", "600")
	t.Setenv("POLL_SECONDS", "60")
	t.Setenv("DB_PATH", "/tmp/readings.db")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("INGEST_PER_MINUTE", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.OfflineAfter != 600*time.Second || cfg.PollInterval != time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/readings.db" || cfg.IngestPerMinute != 10 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Timezone.String() != "UTC" {
		t.Errorf("unexpected timezone %v", cfg.Timezone)
	}
}

func TestLoad_MissingBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ENABLE_BOT", "true")

	if _, err := Load(); err == nil {
		t.Error("expected error when ENABLE_BOT is set without BOT_TOKEN")
	}
}

func TestLoad_BotDisabledNeedsNoToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ENABLE_BOT", "false")

	if _, err := Load(); err != nil {
		t.Errorf("unexpected error with bot disabled: %v", err)
	}
}

func TestLoad_RejectsFlappingThreshold(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("OFFLINE_SECONDS", "30")
	t.Setenv("POLL_SECONDS", "300")

	if _, err := Load(); err == nil {
		t.Error("expected error for a threshold far below the sweep period")
	}
}

func TestLoad_RejectsNonPositiveIngestBudget(t *testing.T) {
	for _, v := range []string{"0", "-5"} {
		t.Setenv("BOT_TOKEN", "token")
		t.Setenv("INGEST_PER_MINUTE", v)

		if _, err := Load(); err == nil {
			t.Errorf("expected error for INGEST_PER_MINUTE=%s", v)
		}
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
