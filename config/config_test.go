package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	writeTestConfig(t, `
http:
  addr: ":8080"
grpc:
  addr: ":9090"
postgres:
  dsn: "postgres://localhost/chat"
session:
  secret: "s3cret"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Logging.Service != "chat-service" || cfg.Logging.Env != "dev" {
		t.Fatalf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Session.Issuer != "chat-service" {
		t.Fatalf("issuer default = %q", cfg.Session.Issuer)
	}
	if cfg.Chat.GuestNamePrefix != "ゲスト" || cfg.Chat.MaxMessageLen != 4000 {
		t.Fatalf("chat defaults = %+v", cfg.Chat)
	}
	if cfg.SessionTTL() != 720*time.Hour {
		t.Fatalf("session ttl default = %v", cfg.SessionTTL())
	}
	if cfg.ReaperRoomTTL() != 7*24*time.Hour || cfg.ReaperUserTTL() != 30*24*time.Hour {
		t.Fatalf("reaper ttl defaults = %v / %v", cfg.ReaperRoomTTL(), cfg.ReaperUserTTL())
	}
}

func TestLoadConfig_RequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no http addr", "grpc: {addr: \":9090\"}\npostgres: {dsn: \"x\"}\nsession: {secret: \"s\"}\n"},
		{"no grpc addr", "http: {addr: \":8080\"}\npostgres: {dsn: \"x\"}\nsession: {secret: \"s\"}\n"},
		{"no dsn", "http: {addr: \":8080\"}\ngrpc: {addr: \":9090\"}\nsession: {secret: \"s\"}\n"},
		{"no secret", "http: {addr: \":8080\"}\ngrpc: {addr: \":9090\"}\npostgres: {dsn: \"x\"}\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			writeTestConfig(t, c.body)
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfig_ParsesDurations(t *testing.T) {
	writeTestConfig(t, `
http:
  addr: ":8080"
grpc:
  addr: ":9090"
postgres:
  dsn: "postgres://localhost/chat"
session:
  secret: "s3cret"
  ttl: "24h"
reaper:
  roomTTL: "48h"
  userTTL: "96h"
`)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("session ttl = %v", cfg.SessionTTL())
	}
	if cfg.ReaperRoomTTL() != 48*time.Hour || cfg.ReaperUserTTL() != 96*time.Hour {
		t.Fatalf("reaper ttls = %v / %v", cfg.ReaperRoomTTL(), cfg.ReaperUserTTL())
	}
}
