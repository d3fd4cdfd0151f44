package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that accepts human-readable YAML values such
// as "50ms" or "1m30s", as well as plain nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// WorldServer holds all configuration for the world server.
type WorldServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Metrics endpoint
	MetricsAddress string `yaml:"metrics_address"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Simulation
	TickInterval    Duration `yaml:"tick_interval"`
	VisibilityRange float32  `yaml:"visibility_range"`

	// Maps to bring up at startup
	Maps []MapEntry `yaml:"maps"`

	// Respawn tuning
	RespawnRate float64 `yaml:"respawn_rate"` // scales every spawn delay
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MapEntry describes one map shard to run.
type MapEntry struct {
	ID         uint32 `yaml:"id"`
	Type       string `yaml:"type"` // world | dungeon | raid
	Difficulty uint8  `yaml:"difficulty"`
}

// DefaultWorldServer returns WorldServer config with sensible defaults.
func DefaultWorldServer() WorldServer {
	return WorldServer{
		BindAddress:     "0.0.0.0",
		Port:            8085,
		MetricsAddress:  ":9100",
		TickInterval:    Duration(50 * time.Millisecond),
		VisibilityRange: 90.0,
		RespawnRate:     1.0,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "wowgo",
			Password: "wowgo",
			DBName:   "wowgo",
			SSLMode:  "disable",
		},
		Maps: []MapEntry{
			{ID: 0, Type: "world"},
			{ID: 1, Type: "world"},
		},
	}
}

// LoadWorldServer loads world server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadWorldServer(path string) (WorldServer, error) {
	cfg := DefaultWorldServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
