package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadServerFrom_Defaults(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"ANON_KEY":         "anon",
		"SERVICE_ROLE_KEY": "service",
	})

	cfg, err := LoadServerFrom(context.Background(), l)
	if err != nil {
		t.Fatalf("LoadServerFrom returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.TokenTTL != 24*time.Hour || !cfg.AdminSignupEnabled || cfg.AuditWorkers != 8 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AuditDedupWindow != time.Hour || cfg.Mongo.ConnectTimeout != 10*time.Second || cfg.Redis.PoolSize != 10 {
		t.Fatalf("unexpected tuning defaults: %+v", cfg)
	}
	if cfg.Mongo.Database != "community_board" || cfg.Redis.Addr != "localhost:6379" || cfg.Redis.URL != "" {
		t.Fatalf("unexpected store defaults: %+v %+v", cfg.Mongo, cfg.Redis)
	}
	if cfg.IsProduction() {
		t.Fatalf("default env should not be production")
	}
}

func TestLoadServerFrom_Required(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{"ANON_KEY": "anon"})
	if _, err := LoadServerFrom(context.Background(), l); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}

func TestLoadServerFrom_KeysMustDiffer(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"ANON_KEY":         "same",
		"SERVICE_ROLE_KEY": "same",
	})
	_, err := LoadServerFrom(context.Background(), l)
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected key collision error, got %v", err)
	}
}

func TestLoadClientFrom(t *testing.T) {
	l := envconfig.MapLookuper(map[string]string{
		"BOARD_URL":       "http://localhost:8080",
		"BOARD_ANON_KEY":  "anon",
		"BOARD_STATE_DIR": "/tmp/board",
	})
	cfg, err := LoadClientFrom(context.Background(), l)
	if err != nil {
		t.Fatalf("LoadClientFrom returned error: %v", err)
	}
	if cfg.Timeout != 15*time.Second || cfg.StateDir != "/tmp/board" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected client config: %+v", cfg)
	}

	if _, err := LoadClientFrom(context.Background(), envconfig.MapLookuper(nil)); err == nil {
		t.Fatalf("expected error when BOARD_URL is missing")
	}
}
