package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultGRPCPort        = 50051
	DefaultWindowCapacity  = 50
	DefaultRefreshInterval = 2 * time.Second
	DefaultBroker          = "broker.hivemq.com:1883"
	DefaultTopic           = "iot/fake/sensors"
	DefaultClientIDPrefix  = "esp-dashboard"
	DefaultKeepAlive       = 60 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultEmbeddedAddress = ":1883"
)

// Config holds the server-side configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

// ServerConfig holds the HTTP/gRPC surface and window settings.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
	GRPCPort int `yaml:"grpc_port"`

	Window WindowConfig `yaml:"window"`

	// RefreshInterval is how often the dashboard polls and the WebSocket hub
	// pushes a fresh series.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	Auth AuthConfig `yaml:"auth"`
	Log  LogConfig  `yaml:"log"`
}

// WindowConfig sizes the sliding window.
type WindowConfig struct {
	// Capacity is the number of most recent samples retained. Zero keeps none.
	Capacity int `yaml:"capacity"`
}

// AuthConfig controls client authentication on the HTTP API and gRPC health
// service.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header (and gRPC metadata key) carrying the key.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return strings.ToLower(a.Header)
	}
	return "x-api-key"
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps Level to a slog.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MQTTConfig describes the broker subscription that feeds the window.
type MQTTConfig struct {
	// Broker is host:port of the MQTT broker.
	Broker string `yaml:"broker"`

	// Topic is the single topic sensor readings are published on.
	Topic string `yaml:"topic"`

	// ClientID is sent on CONNECT. A random suffix is appended when empty.
	ClientID string `yaml:"client_id"`

	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`

	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	Embedded EmbeddedConfig `yaml:"embedded"`
}

// Password returns the broker password resolved from the environment.
func (m MQTTConfig) Password() string {
	if m.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(m.PasswordEnv)
}

// EmbeddedConfig runs an in-process broker. When enabled the subscriber
// connects to it instead of Broker.
type EmbeddedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			GRPCPort:        DefaultGRPCPort,
			Window:          WindowConfig{Capacity: DefaultWindowCapacity},
			RefreshInterval: DefaultRefreshInterval,
			Log:             LogConfig{Level: "info", Format: "json"},
		},
		MQTT: MQTTConfig{
			Broker:         DefaultBroker,
			Topic:          DefaultTopic,
			KeepAlive:      DefaultKeepAlive,
			ConnectTimeout: DefaultConnectTimeout,
			Embedded:       EmbeddedConfig{Address: DefaultEmbeddedAddress},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.GRPCPort < 0 || s.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", s.GRPCPort)
	}
	if s.Window.Capacity < 0 {
		return fmt.Errorf("server.window.capacity must not be negative")
	}
	if s.RefreshInterval <= 0 {
		return fmt.Errorf("server.refresh_interval must be positive")
	}
	switch s.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", s.Auth.Mode)
	}
	switch s.Log.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("server.log.format %q unknown: want json|text", s.Log.Format)
	}

	m := cfg.MQTT
	if m.Topic == "" {
		return fmt.Errorf("mqtt.topic is required")
	}
	if strings.ContainsAny(m.Topic, "+#") {
		return fmt.Errorf("mqtt.topic %q must be a single topic, not a filter", m.Topic)
	}
	if !m.Embedded.Enabled {
		if _, _, err := net.SplitHostPort(m.Broker); err != nil {
			return fmt.Errorf("mqtt.broker %q: want host:port: %w", m.Broker, err)
		}
	} else if _, _, err := net.SplitHostPort(m.Embedded.Address); err != nil {
		return fmt.Errorf("mqtt.embedded.address %q: want host:port: %w", m.Embedded.Address, err)
	}
	if m.KeepAlive < 0 {
		return fmt.Errorf("mqtt.keep_alive must not be negative")
	}
	if m.ConnectTimeout <= 0 {
		return fmt.Errorf("mqtt.connect_timeout must be positive")
	}
	return nil
}
