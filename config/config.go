package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/telemetry"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config represents the overall application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Ingest     IngestConfig     `yaml:"ingest"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Database   DatabaseConfig   `yaml:"database"`
	Influx     InfluxConfig     `yaml:"influx"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Session    SessionConfig    `yaml:"session"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Mock       MockConfig       `yaml:"mock"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications. Push is
// disabled when either key is empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RequestIPHeader string   `yaml:"request_ip_header"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// IngestConfig holds the HTTP telemetry poller configuration.
type IngestConfig struct {
	Enabled         bool              `yaml:"enabled"`
	URL             string            `yaml:"url"`
	Headers         map[string]string `yaml:"headers"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	Timeout         time.Duration     `yaml:"-"`
	HTTPProxy       string            `yaml:"http_proxy"`
}

// MQTTConfig holds the optional MQTT telemetry stream configuration.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
	HistoryRetentionDays   int    `yaml:"history_retention_days"`
}

// InfluxConfig holds the optional InfluxDB v2 sink configuration.
type InfluxConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// SessionConfig holds the login session configuration.
type SessionConfig struct {
	TTLMinutes int           `yaml:"ttl_minutes"`
	TTL        time.Duration `yaml:"-"`
}

// ThresholdsConfig holds the classifier profile of each view.
type ThresholdsConfig struct {
	Owner  telemetry.Thresholds `yaml:"owner"`
	Renter telemetry.Thresholds `yaml:"renter"`
}

// MockConfig controls the demo data generator.
type MockConfig struct {
	Enabled      bool             `yaml:"enabled"`
	Seed         uint64           `yaml:"seed"`
	SeedAccounts bool             `yaml:"seed_accounts"`
	FleetSize    int              `yaml:"fleet_size"`
	Income       mock.IncomeRange `yaml:"income"`
}

// Default returns a configuration with every default applied. Load decodes
// the YAML file on top of it.
func Default() *Config {
	cfg := &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:            8080,
			RateLimitPerSec: 10,
			CacheTTLSeconds: 5,
		},
		Ingest: IngestConfig{
			IntervalSeconds: 30,
			TimeoutSeconds:  10,
		},
		MQTT: MQTTConfig{
			ClientID: "purityd",
			Topic:    "purifiers/+/telemetry",
			QoS:      1,
		},
		Database: DatabaseConfig{
			Driver:                 DriverPostgres,
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
			HistoryRetentionDays:   30,
		},
		Push:       PushConfig{TTL: 3600},
		WorkerPool: WorkerPoolConfig{Size: 1},
		Session:    SessionConfig{TTLMinutes: 24 * 60},
		Thresholds: ThresholdsConfig{
			Owner:  telemetry.OwnerThresholds(),
			Renter: telemetry.RenterThresholds(),
		},
		Mock: MockConfig{
			FleetSize: 40,
			Income:    mock.DefaultIncomeRange,
		},
	}
	cfg.normalize()
	return cfg
}

// Load reads the configuration from the given path. A .env file in the
// working directory is loaded first; PURITY_* variables override secrets
// from the YAML file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	overrides := map[string]*string{
		"PURITY_DATABASE_DSN":      &cfg.Database.DSN,
		"PURITY_DATABASE_DRIVER":   &cfg.Database.Driver,
		"PURITY_VAPID_PUBLIC_KEY":  &cfg.Push.PublicKey,
		"PURITY_VAPID_PRIVATE_KEY": &cfg.Push.PrivateKey,
		"PURITY_INFLUX_TOKEN":      &cfg.Influx.Token,
		"PURITY_MQTT_PASSWORD":     &cfg.MQTT.Password,
		"PURITY_INGEST_URL":        &cfg.Ingest.URL,
		"PURITY_LOG_LEVEL":         &cfg.LogLevel,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("PURITY_SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PURITY_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

func (cfg *Config) normalize() {
	if cfg.Ingest.IntervalSeconds <= 0 {
		cfg.Ingest.IntervalSeconds = 30
	}
	cfg.Ingest.Interval = time.Duration(cfg.Ingest.IntervalSeconds) * time.Second

	if cfg.Ingest.TimeoutSeconds <= 0 {
		cfg.Ingest.TimeoutSeconds = 10
	}
	cfg.Ingest.Timeout = time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second

	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 24 * 60
	}
	cfg.Session.TTL = time.Duration(cfg.Session.TTLMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Mock.FleetSize < 0 {
		cfg.Mock.FleetSize = 0
	}
}
