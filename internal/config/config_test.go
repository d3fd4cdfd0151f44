package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWorldServer_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadWorldServer(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if cfg.Port != 8085 {
		t.Errorf("Port = %d, want default 8085", cfg.Port)
	}
	if cfg.TickInterval.Std() != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", cfg.TickInterval.Std())
	}
	if len(cfg.Maps) != 2 {
		t.Errorf("Maps = %v, want the two default shards", cfg.Maps)
	}
}

func TestLoadWorldServer_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldserver.yaml")
	content := `
port: 9000
tick_interval: 100ms
visibility_range: 120
respawn_rate: 2.5
database:
  host: db.internal
  port: 5433
maps:
  - id: 571
    type: world
  - id: 631
    type: raid
    difficulty: 1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWorldServer(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.TickInterval.Std() != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", cfg.TickInterval.Std())
	}
	if cfg.VisibilityRange != 120 {
		t.Errorf("VisibilityRange = %v, want 120", cfg.VisibilityRange)
	}
	if cfg.RespawnRate != 2.5 {
		t.Errorf("RespawnRate = %v, want 2.5", cfg.RespawnRate)
	}
	// Untouched keys keep their defaults.
	if cfg.Database.User != "wowgo" {
		t.Errorf("Database.User = %q, want default", cfg.Database.User)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want override", cfg.Database.Host)
	}
	if len(cfg.Maps) != 2 || cfg.Maps[1].Type != "raid" || cfg.Maps[1].Difficulty != 1 {
		t.Errorf("Maps = %v, want the two configured shards", cfg.Maps)
	}
}

func TestLoadWorldServer_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldserver.yaml")
	if err := os.WriteFile(path, []byte("port: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWorldServer(path); err == nil {
		t.Error("malformed yaml should error")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "world", SSLMode: "disable"}
	want := "postgres://u:p@localhost:5432/world?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
