package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Motion.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Stage       StageConfig       `yaml:"stage"`
	Effects     EffectsConfig     `yaml:"effects"`
	Database    DatabaseConfig    `yaml:"database"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	API         APIConfig         `yaml:"api"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// EngineConfig contains frame loop and performance monitor settings.
type EngineConfig struct {
	// FrameRate is the target tick rate of the frame loop in frames per second.
	FrameRate int `yaml:"frame_rate"`
	// FPSFloor is the measured frame rate below which effects are skipped.
	FPSFloor float64 `yaml:"fps_floor"`
	// CPUCeiling is the host CPU percentage above which effects are skipped.
	// Zero disables CPU sampling.
	CPUCeiling float64 `yaml:"cpu_ceiling"`
	// SampleInterval is the frame rate measurement window in milliseconds.
	SampleInterval int `yaml:"sample_interval"`
}

// CoordinatorConfig contains retry and reliability settings.
type CoordinatorConfig struct {
	MaxRetries      int `yaml:"max_retries"`
	RetryBackoffMS  int `yaml:"retry_backoff_ms"`
	RetryIntervalMS int `yaml:"retry_interval_ms"`
	SuccessWindow   int `yaml:"success_window"`
	HighlightHoldMS int `yaml:"highlight_hold_ms"`
}

// StageConfig points at the YAML description of the animated surface.
type StageConfig struct {
	Path          string `yaml:"path"`
	ReducedMotion bool   `yaml:"reduced_motion"`
}

// EffectsConfig contains effect registry settings.
type EffectsConfig struct {
	// DefaultVariants maps effect name to the variant selected at startup.
	DefaultVariants map[string]string `yaml:"default_variants"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	// MirrorMutations publishes every stage write to motion/mutation/<handle>.
	MirrorMutations bool `yaml:"mirror_mutations"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MOTION_SECTION_KEY
// For example: MOTION_DATABASE_PATH, MOTION_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			FrameRate:      60,
			FPSFloor:       30,
			SampleInterval: 1000,
		},
		Coordinator: CoordinatorConfig{
			MaxRetries:      3,
			RetryBackoffMS:  500,
			RetryIntervalMS: 1000,
			SuccessWindow:   20,
			HighlightHoldMS: 3000,
		},
		Stage: StageConfig{
			Path: "./configs/stage.yaml",
		},
		Database: DatabaseConfig{
			Path:        "./data/motion.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-motion",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MOTION_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Stage
	if v := os.Getenv("MOTION_STAGE_PATH"); v != "" {
		cfg.Stage.Path = v
	}
	if v := os.Getenv("MOTION_REDUCED_MOTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Stage.ReducedMotion = b
		}
	}

	// Database
	if v := os.Getenv("MOTION_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MOTION_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MOTION_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MOTION_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("MOTION_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("MOTION_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("MOTION_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("MOTION_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Engine validation
	if c.Engine.FrameRate < 1 || c.Engine.FrameRate > 240 {
		errs = append(errs, "engine.frame_rate must be between 1 and 240")
	}
	if c.Engine.FPSFloor < 0 {
		errs = append(errs, "engine.fps_floor must not be negative")
	}
	if c.Engine.CPUCeiling < 0 || c.Engine.CPUCeiling > 100 {
		errs = append(errs, "engine.cpu_ceiling must be between 0 and 100")
	}
	if c.Engine.SampleInterval < 100 {
		errs = append(errs, "engine.sample_interval must be at least 100ms")
	}

	// Coordinator validation
	if c.Coordinator.MaxRetries < 1 {
		errs = append(errs, "coordinator.max_retries must be at least 1")
	}
	if c.Coordinator.RetryBackoffMS < 0 {
		errs = append(errs, "coordinator.retry_backoff_ms must not be negative")
	}
	if c.Coordinator.RetryIntervalMS < 1 {
		errs = append(errs, "coordinator.retry_interval_ms must be positive")
	}

	// Stage validation
	if c.Stage.Path == "" {
		errs = append(errs, "stage.path is required")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// FrameInterval returns the frame loop period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Engine.FrameRate)
}

// GetSampleInterval returns the frame rate measurement window as a Duration.
func (c *Config) GetSampleInterval() time.Duration {
	return time.Duration(c.Engine.SampleInterval) * time.Millisecond
}

// GetRetryBackoff returns the coordinator retry backoff unit as a Duration.
func (c *Config) GetRetryBackoff() time.Duration {
	return time.Duration(c.Coordinator.RetryBackoffMS) * time.Millisecond
}

// GetRetryInterval returns the retry processor period as a Duration.
func (c *Config) GetRetryInterval() time.Duration {
	return time.Duration(c.Coordinator.RetryIntervalMS) * time.Millisecond
}

// GetHighlightHold returns how long a fallback highlight stays as a Duration.
func (c *Config) GetHighlightHold() time.Duration {
	return time.Duration(c.Coordinator.HighlightHoldMS) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
