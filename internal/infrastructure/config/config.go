package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Gray Logic Audio.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Transport TransportConfig `yaml:"transport"`
	History   HistoryConfig   `yaml:"history"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
// The database holds the command log only; volume history is never persisted.
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

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// The dashboard is usually served from a different port, so an empty
// origin list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket event stream settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
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

// DiscoveryConfig controls how the speaker topology is found at startup.
type DiscoveryConfig struct {
	// BroadcastTimeout bounds the SSDP search (seconds). A silent network
	// must fail fast so the fallback hosts get a chance.
	BroadcastTimeout int `yaml:"broadcast_timeout"`

	// ProbeTimeout bounds each unicast fallback probe (seconds).
	ProbeTimeout int `yaml:"probe_timeout"`

	// FallbackHosts are probed one at a time, in order, when broadcast
	// discovery fails (e.g. over a VPN that drops multicast).
	FallbackHosts []string `yaml:"fallback_hosts"`

	// Scan optionally extends the fallback list with hosts found by nmap.
	Scan ScanConfig `yaml:"scan"`
}

// ScanConfig configures the nmap candidate scan.
type ScanConfig struct {
	Enabled bool     `yaml:"enabled"`
	Targets []string `yaml:"targets"` // CIDR ranges or addresses
	Timeout int      `yaml:"timeout"` // seconds
}

// TransportConfig contains settings for talking to the speakers.
type TransportConfig struct {
	// Port is the speakers' UPnP control port.
	Port int `yaml:"port"`

	// CommandTimeout bounds every single device call (seconds).
	CommandTimeout int `yaml:"command_timeout"`

	// MaxConcurrency limits concurrent device calls per fan-out. 0 means unlimited.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// HistoryConfig contains volume undo history settings.
type HistoryConfig struct {
	// SeedOnStart records every discovered speaker's current volume at
	// startup so undo and unmute work from the first request.
	SeedOnStart bool `yaml:"seed_on_start"`
}

// DashboardConfig controls the browser control panel served at "/".
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir serves a built front end from disk instead of the embedded one.
	Dir string `yaml:"dir"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_AUDIO_SECTION_KEY
// For example: GRAYLOGIC_AUDIO_DATABASE_PATH, GRAYLOGIC_AUDIO_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
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
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Gray Logic Audio",
		},
		Database: DatabaseConfig{
			Path:        "./data/graylogic-audio.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-audio",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3001,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Discovery: DiscoveryConfig{
			BroadcastTimeout: 5,
			ProbeTimeout:     5,
			Scan: ScanConfig{
				Timeout: 60,
			},
		},
		Transport: TransportConfig{
			Port:           1400,
			CommandTimeout: 5,
		},
		History: HistoryConfig{
			SeedOnStart: true,
		},
		Dashboard: DashboardConfig{
			Enabled: true,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_AUDIO_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAYLOGIC_AUDIO_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_AUDIO_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_AUDIO_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_AUDIO_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_AUDIO_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	// PORT is read first; GRAYLOGIC_AUDIO_API_PORT wins when both are set.
	for _, key := range []string{"PORT", "GRAYLOGIC_AUDIO_API_PORT"} {
		if v := os.Getenv(key); v != "" {
			if port, err := strconv.Atoi(v); err == nil {
				cfg.API.Port = port
			}
		}
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_AUDIO_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Discovery - comma separated, replaces the file list
	if v := os.Getenv("GRAYLOGIC_AUDIO_DISCOVERY_FALLBACK_HOSTS"); v != "" {
		cfg.Discovery.FallbackHosts = splitList(v)
	}
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Discovery.BroadcastTimeout <= 0 {
		errs = append(errs, "discovery.broadcast_timeout must be positive")
	}
	if c.Discovery.ProbeTimeout <= 0 {
		errs = append(errs, "discovery.probe_timeout must be positive")
	}
	for _, h := range c.Discovery.FallbackHosts {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, "discovery.fallback_hosts must not contain empty entries")
			break
		}
	}
	if c.Discovery.Scan.Enabled && len(c.Discovery.Scan.Targets) == 0 {
		errs = append(errs, "discovery.scan.targets is required when scanning is enabled")
	}

	if c.Transport.Port < 1 || c.Transport.Port > 65535 {
		errs = append(errs, "transport.port must be between 1 and 65535")
	}
	if c.Transport.CommandTimeout < 0 {
		errs = append(errs, "transport.command_timeout must not be negative")
	}
	if c.Transport.MaxConcurrency < 0 {
		errs = append(errs, "transport.max_concurrency must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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

// BroadcastTimeoutDuration returns the discovery broadcast timeout as a Duration.
func (d DiscoveryConfig) BroadcastTimeoutDuration() time.Duration {
	return time.Duration(d.BroadcastTimeout) * time.Second
}

// ProbeTimeoutDuration returns the per-candidate probe timeout as a Duration.
func (d DiscoveryConfig) ProbeTimeoutDuration() time.Duration {
	return time.Duration(d.ProbeTimeout) * time.Second
}

// TimeoutDuration returns the nmap scan timeout as a Duration.
func (s ScanConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// CommandTimeoutDuration returns the per-device command timeout.
// Zero means device calls are bounded only by the request context.
func (t TransportConfig) CommandTimeoutDuration() time.Duration {
	return time.Duration(t.CommandTimeout) * time.Second
}
