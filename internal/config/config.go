package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Client   ClientConfig   `yaml:"client"`
	Display  DisplayConfig  `yaml:"display"`
	Apps     AppsConfig     `yaml:"apps"`
	Logging  LoggingConfig  `yaml:"logging"`

	// ConfigPath is the path to the config file (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig represents the local setup server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Event stream settings
	WSPingInterval time.Duration `yaml:"ws_ping_interval"`
	SaveHistory    int           `yaml:"save_history"`
}

// StoreConfig selects the settings backend
type StoreConfig struct {
	Driver string `yaml:"driver"` // "json" or "sqlite"
	Path   string `yaml:"path"`
}

// DefaultsConfig holds the values the defaults button and the /save
// handler fall back to
type DefaultsConfig struct {
	UserName     string `yaml:"user_name"`
	SidekickName string `yaml:"sidekick_name"`
}

// ClientConfig configures the controller side of the form
type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// "last-completion" (default) or "latest-request"
	Ordering string `yaml:"ordering"`

	WSReconnectDelay time.Duration `yaml:"ws_reconnect_delay"`
	WSMaxReconnect   time.Duration `yaml:"ws_max_reconnect_delay"`
}

// DisplayConfig configures where the completion message is shown
type DisplayConfig struct {
	Type    string `yaml:"type"` // "console", "network" or "none"
	Address string `yaml:"address,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// AppsConfig locates custom app files
type AppsConfig struct {
	Dir       string   `yaml:"dir"`
	Preserved []string `yaml:"preserved"` // never overwritten or deleted
}

// LoggingConfig sizes the in-memory log buffer
type LoggingConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			WSPingInterval: 30 * time.Second,
			SaveHistory:    50,
		},
		Store: StoreConfig{
			Driver: "json",
			Path:   "settings.json",
		},
		Defaults: DefaultsConfig{
			UserName:     "User",
			SidekickName: "Sidekick",
		},
		Client: ClientConfig{
			BaseURL:          "http://localhost:8080",
			Timeout:          15 * time.Second,
			Ordering:         "last-completion",
			WSReconnectDelay: 1 * time.Second,
			WSMaxReconnect:   30 * time.Second,
		},
		Display: DisplayConfig{
			Type: "console",
		},
		Apps: AppsConfig{
			Dir: "custom_code",
			Preserved: []string{
				"custom_code_button.py",
				"custom_code_pomodoro.py",
				"custom_code_stopwatch.py",
			},
		},
		Logging: LoggingConfig{
			BufferSize: 500,
		},
	}
}

// SearchPaths are the locations Load tries, in order
var SearchPaths = []string{
	"config.yaml",
	"configs/config.yaml",
	"/etc/sidekick/config.yaml",
}

// Load loads configuration from the first config file found in SearchPaths
func Load() (*Config, error) {
	var lastErr error
	for _, path := range SearchPaths {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		lastErr = err
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, lastErr
}

// LoadFile loads configuration from path, layered over Default()
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.ConfigPath = path
	return cfg, nil
}

// Validate checks enumerated fields
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Client.Ordering {
	case "", "last-completion", "latest-request":
	default:
		return fmt.Errorf("unknown client ordering %q", c.Client.Ordering)
	}
	switch c.Display.Type {
	case "console", "network", "none":
	default:
		return fmt.Errorf("unknown display type %q", c.Display.Type)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
