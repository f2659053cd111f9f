package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	Search   SearchConfig   `toml:"search"`
	Database DatabaseConfig `toml:"database"`
	Sync     SyncConfig     `toml:"sync"`
	Server   ServerConfig   `toml:"server"`
}

// CatalogConfig points at the iTunes catalog API.
type CatalogConfig struct {
	BaseURL string `toml:"base_url"`
	Country string `toml:"country"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// SearchConfig tunes the search aggregator.
type SearchConfig struct {
	ResultLimit    int     `toml:"result_limit"`
	Workers        int     `toml:"workers"`
	RateLimit      float64 `toml:"rate_limit"`      // secondary lookups per second
	CoverTolerance int     `toml:"cover_tolerance"` // seconds
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig enables playlist broadcast over Redis when RedisAddr is set.
type SyncConfig struct {
	RedisAddr string `toml:"redis_addr"`
	Channel   string `toml:"channel"`
}

// ServerConfig configures `jukebox serve`.
type ServerConfig struct {
	Addr      string  `toml:"addr"`
	RateLimit float64 `toml:"rate_limit"` // requests per second, 0 disables
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
