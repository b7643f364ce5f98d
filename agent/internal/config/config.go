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

// Default values applied when fields are absent from the config file.
const (
	DefaultBroker          = "broker.hivemq.com:1883"
	DefaultTopic           = "iot/fake/sensors"
	DefaultClientIDPrefix  = "esp8266"
	DefaultPublishInterval = 5 * time.Second
	DefaultBufferSize      = 100
	DefaultKeepAlive       = 60 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
)

// Config is the top-level agent configuration file.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds the simulated sensor and its MQTT connection.
type AgentConfig struct {
	// Broker is the MQTT broker address (host:port).
	Broker string `yaml:"broker"`

	// Topic is where readings are published. Must not contain wildcards.
	Topic string `yaml:"topic"`

	// ClientID defaults to "esp8266-" plus a random suffix.
	ClientID string `yaml:"client_id"`

	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`

	KeepAlive      time.Duration `yaml:"keep_alive"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// PublishInterval is how often a reading is taken. Hot-reloadable.
	PublishInterval time.Duration `yaml:"publish_interval"`

	// BufferSize is the number of readings held while the broker is
	// unreachable. The oldest is dropped when it overflows.
	BufferSize int `yaml:"buffer_size"`

	Sensor SensorConfig `yaml:"sensor"`
	Log    LogConfig    `yaml:"log"`
}

// Password resolves PasswordEnv from the environment.
func (a AgentConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// SensorConfig shapes the simulated DHT-style readings.
type SensorConfig struct {
	Temperature Channel `yaml:"temperature"`
	Humidity    Channel `yaml:"humidity"`
}

// Channel describes one simulated quantity: it wanders around Base by up to
// Jitter per reading and is clamped to [Min, Max].
type Channel struct {
	Base   float64 `yaml:"base"`
	Jitter float64 `yaml:"jitter"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
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

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values. The sensor
// ranges match a DHT22.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			Broker:          DefaultBroker,
			Topic:           DefaultTopic,
			KeepAlive:       DefaultKeepAlive,
			ConnectTimeout:  DefaultConnectTimeout,
			PublishInterval: DefaultPublishInterval,
			BufferSize:      DefaultBufferSize,
			Sensor: SensorConfig{
				Temperature: Channel{Base: 22, Jitter: 0.5, Min: -40, Max: 80},
				Humidity:    Channel{Base: 45, Jitter: 1.5, Min: 0, Max: 100},
			},
			Log: LogConfig{Level: "info", Format: "json"},
		},
	}
}

func validate(cfg *Config) error {
	a := cfg.Agent
	if _, _, err := net.SplitHostPort(a.Broker); err != nil {
		return fmt.Errorf("agent.broker %q must be host:port: %w", a.Broker, err)
	}
	if a.Topic == "" {
		return fmt.Errorf("agent.topic is required")
	}
	if strings.ContainsAny(a.Topic, "+#") {
		return fmt.Errorf("agent.topic %q must not contain wildcards", a.Topic)
	}
	if a.PublishInterval <= 0 {
		return fmt.Errorf("agent.publish_interval must be positive")
	}
	if a.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	if a.KeepAlive < 0 {
		return fmt.Errorf("agent.keep_alive must not be negative")
	}
	if a.ConnectTimeout <= 0 {
		return fmt.Errorf("agent.connect_timeout must be positive")
	}
	if err := a.Sensor.Temperature.validate(); err != nil {
		return fmt.Errorf("agent.sensor.temperature: %w", err)
	}
	if err := a.Sensor.Humidity.validate(); err != nil {
		return fmt.Errorf("agent.sensor.humidity: %w", err)
	}
	switch a.Log.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("agent.log.format: unknown format %q", a.Log.Format)
	}
	return nil
}

func (c Channel) validate() error {
	if c.Min > c.Max {
		return fmt.Errorf("min %v is above max %v", c.Min, c.Max)
	}
	if c.Base < c.Min || c.Base > c.Max {
		return fmt.Errorf("base %v is outside [%v, %v]", c.Base, c.Min, c.Max)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative")
	}
	return nil
}
