package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8090" {
		t.Errorf("Expected Port to be 8090, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 25 {
		t.Errorf("Expected DB MaxConns to be 25, got %d", cfg.Database.MaxConns)
	}

	if cfg.Pipeline.HorizonPeriods != 3 {
		t.Errorf("Expected horizon periods to be 3, got %d", cfg.Pipeline.HorizonPeriods)
	}

	if cfg.Pipeline.MinHistoryPeriods != 24 {
		t.Errorf("Expected min history periods to be 24, got %d", cfg.Pipeline.MinHistoryPeriods)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("ENV", "production")
	os.Setenv("DB_MAX_CONNS", "50")
	os.Setenv("LOG_LEVEL", "info")
	os.Setenv("PIPELINE_CONTEXT_TOP_K", "10")
	os.Setenv("MARKET_TIMEOUT", "45s")

	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("ENV")
		os.Unsetenv("DB_MAX_CONNS")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("PIPELINE_CONTEXT_TOP_K")
		os.Unsetenv("MARKET_TIMEOUT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Database.MaxConns != 50 {
		t.Errorf("Expected DB MaxConns to be 50, got %d", cfg.Database.MaxConns)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel to be info, got %s", cfg.LogLevel)
	}

	if cfg.Pipeline.ContextTopK != 10 {
		t.Errorf("Expected ContextTopK to be 10, got %d", cfg.Pipeline.ContextTopK)
	}

	if cfg.Market.Timeout != 45*time.Second {
		t.Errorf("Expected Market timeout to be 45s, got %s", cfg.Market.Timeout)
	}
}

func TestValidateEnv(t *testing.T) {
	os.Setenv("ENV", "bogus")
	defer os.Unsetenv("ENV")

	if _, err := Load(); err == nil {
		t.Error("Expected validation error for invalid ENV")
	}
}

func TestValidatePipeline(t *testing.T) {
	os.Setenv("PIPELINE_MIN_HISTORY_PERIODS", "1")
	defer os.Unsetenv("PIPELINE_MIN_HISTORY_PERIODS")

	if _, err := Load(); err == nil {
		t.Error("Expected validation error for min history periods < 2")
	}
}
