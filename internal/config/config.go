package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Daemon  DaemonConfig  `mapstructure:"daemon"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Sync    SyncConfig    `mapstructure:"sync"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DaemonConfig holds download daemon connection configuration
type DaemonConfig struct {
	URL      string `mapstructure:"url"`      // e.g. http://localhost:8000
	Username string `mapstructure:"username"` // sent to /token
	Role     string `mapstructure:"role"`     // "user" or "admin"
}

// CatalogConfig holds model catalog configuration
type CatalogConfig struct {
	URL    string `mapstructure:"url"`     // catalog API base URL
	APIKey string `mapstructure:"api_key"` // optional catalog API key
}

// SyncConfig holds the synchronization engine's tunables. The fixed-delay
// reconnect and fixed-period poll are deliberate simplicity/latency
// trade-offs; they are configurable but carry no backoff.
type SyncConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			URL:      "http://localhost:8000",
			Username: "user",
			Role:     "user",
		},
		Catalog: CatalogConfig{
			URL: "http://localhost:8000",
		},
		Sync: SyncConfig{
			PollInterval:   2 * time.Second,
			ReconnectDelay: 2 * time.Second,
		},
		UI: UIConfig{
			PageSize: 24,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "modelsync", "modelsync.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "modelsync", "modelsync.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "modelsync")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "modelsync")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("MODELSYNC")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("daemon.url", cfg.Daemon.URL)
	viper.Set("daemon.username", cfg.Daemon.Username)
	viper.Set("daemon.role", cfg.Daemon.Role)

	viper.Set("catalog.url", cfg.Catalog.URL)
	viper.Set("catalog.api_key", cfg.Catalog.APIKey)

	viper.Set("sync.poll_interval", cfg.Sync.PollInterval)
	viper.Set("sync.reconnect_delay", cfg.Sync.ReconnectDelay)

	viper.Set("ui.page_size", cfg.UI.PageSize)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DataDir returns the directory for the local state database
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "modelsync")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "modelsync")
	}
}

// WebSocketURL derives the push channel URL from the daemon base URL.
func (c *DaemonConfig) WebSocketURL() string {
	u := c.URL
	switch {
	case len(u) >= 8 && u[:8] == "https://":
		u = "wss://" + u[8:]
	case len(u) >= 7 && u[:7] == "http://":
		u = "ws://" + u[7:]
	}
	return u + "/ws/downloads"
}
