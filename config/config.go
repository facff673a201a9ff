package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	Output string `yaml:"output"` // stdout, stderr
}

// StoreConfig selects where the registry document lives.
type StoreConfig struct {
	// Backend is one of "gorm", "redis" or "memory".
	Backend          string `yaml:"backend"`
	Key              string `yaml:"key"`
	SubscriptionsKey string `yaml:"subscriptions_key"`
	// DisableSeed skips the demo fixture on first run.
	DisableSeed bool `yaml:"disable_seed"`
	// ReseedOnCorrupt replaces an undecodable document with the fixture
	// instead of refusing to start.
	ReseedOnCorrupt bool `yaml:"reseed_on_corrupt"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the Redis connection used by the redis store backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// TelemetryConfig holds thresholds for telemetry-raised alerts and the
// optional upstream poller.
type TelemetryConfig struct {
	LowBatteryPercent      int                 `yaml:"low_battery_percent"`
	CriticalBatteryPercent int                 `yaml:"critical_battery_percent"`
	Poll                   TelemetryPollConfig `yaml:"poll"`
}

// TelemetryPollConfig configures the upstream telemetry poller.
type TelemetryPollConfig struct {
	Enabled         bool              `yaml:"enabled"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	URL             string            `yaml:"url"`
	Headers         map[string]string `yaml:"headers"`
	PageSize        int               `yaml:"page_size"`
	HTTPProxy       string            `yaml:"http_proxy"`
}

// MQTTConfig contains MQTT broker connection settings for the telemetry feed.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	Topic   string           `yaml:"topic"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig configures the telemetry sample sink.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// SimulatorConfig configures the demo device simulator.
type SimulatorConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
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

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 30
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "gorm"
	}
	if c.Store.Key == "" {
		c.Store.Key = "mdm_devices_data"
	}
	if c.Store.SubscriptionsKey == "" {
		c.Store.SubscriptionsKey = "mdm_push_subscriptions"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "mdm.db"
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "mdm:"
	}

	if c.Telemetry.LowBatteryPercent <= 0 {
		c.Telemetry.LowBatteryPercent = 20
	}
	if c.Telemetry.CriticalBatteryPercent <= 0 {
		c.Telemetry.CriticalBatteryPercent = 5
	}
	if c.Telemetry.Poll.IntervalSeconds <= 0 {
		c.Telemetry.Poll.IntervalSeconds = 60
	}
	c.Telemetry.Poll.Interval = time.Duration(c.Telemetry.Poll.IntervalSeconds) * time.Second
	if c.Telemetry.Poll.PageSize <= 0 {
		c.Telemetry.Poll.PageSize = 100
	}

	if c.MQTT.Broker.Port <= 0 {
		c.MQTT.Broker.Port = 1883
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "mdm/telemetry/+"
	}
	if c.MQTT.QoS <= 0 {
		c.MQTT.QoS = 1
	}

	if c.InfluxDB.Bucket == "" {
		c.InfluxDB.Bucket = "mdm"
	}

	if c.Simulator.IntervalSeconds <= 0 {
		c.Simulator.IntervalSeconds = 30
	}
	c.Simulator.Interval = time.Duration(c.Simulator.IntervalSeconds) * time.Second

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}
}

// applyEnvOverrides lets deployment secrets and hosts come from the
// environment instead of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MDM_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MDM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("MDM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MDM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case "gorm":
		if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
			errs = append(errs, fmt.Sprintf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
		}
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required")
		}
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("store.backend must be gorm, redis or memory, got %q", c.Store.Backend))
	}

	if c.Store.Key == c.Store.SubscriptionsKey {
		errs = append(errs, "store.key and store.subscriptions_key must differ")
	}
	if c.Telemetry.CriticalBatteryPercent >= c.Telemetry.LowBatteryPercent {
		errs = append(errs, "telemetry.critical_battery_percent must be below low_battery_percent")
	}
	if c.Telemetry.Poll.Enabled && c.Telemetry.Poll.URL == "" {
		errs = append(errs, "telemetry.poll.url is required when polling is enabled")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1 or 2")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
