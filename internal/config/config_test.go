package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9000"
storage:
  driver: postgres
postgres:
  url: postgres://quiz@localhost/quizdb
redis:
  addr: localhost:6379
  lockTTL: 5s
quiz:
  ttl: 2m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Storage.Driver != DriverPostgres {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override, got %s", cfg.Redis.Addr)
	}
	if got := TTLDuration(cfg.Redis.LockTTL, time.Second); got != 5*time.Second {
		t.Fatalf("expected 5s lock ttl, got %v", got)
	}
	if cfg.Mongo.Database != "quiz_service" {
		t.Fatalf("expected default mongo database, got %s", cfg.Mongo.Database)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("MONGO_URI", "")
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := Load(missing, false); err == nil {
		t.Fatalf("expected error for required missing file")
	}
	cfg, err := Load(missing, true)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver by default, got %s", cfg.Storage.Driver)
	}
}

func TestDriverInferredFromURLs(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("POSTGRES_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMongo {
		t.Fatalf("expected mongo driver, got %s", cfg.Storage.Driver)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", got)
	}
}
