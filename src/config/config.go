package config

import (
	"fmt"
	"os"

	"signalscan/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.Config and provides validation and persistence.
type Config struct {
	*models.Config
}

// -----------------------------------------------------------------------------

// NewConfig loads a Config from a YAML file, applies defaults for optional
// sections, and validates it.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	modelConfig := defaults()
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{Config: &modelConfig}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// defaults returns a Config pre-populated with every documented default, so
// an entry absent from the YAML keeps a usable value.
func defaults() models.Config {
	return models.Config{
		Name:     "signalscan",
		Host:     "127.0.0.1",
		Port:     8090,
		LogLevel: "INFO",
		Storage: models.StorageConfig{
			Backend: "file",
			DataDir: "data",
			DBPath:  "data/signalscan.db",
		},
		Network: models.NetworkConfig{
			RequestTimeout:     10,
			MaxRetries:         3,
			ConcurrentRequests: 8,
			UserAgent:          "signalscan/1.0",
		},
		Feeds: models.FeedsConfig{
			Alpaca: models.AlpacaConfig{
				StreamURL: "wss://stream.data.alpaca.markets/v2/iex",
				NewsURL:   "wss://stream.data.alpaca.markets/v1beta1/news",
				DataURL:   "https://data.alpaca.markets",
			},
			Tradier: models.TradierConfig{
				SessionURL: "https://api.tradier.com/v1/markets/events/session",
				StreamURL:  "wss://ws.tradier.com/v1/markets/events",
				BatchSize:  50,
			},
			Halts: models.HaltFeedConfig{
				URL: "https://www.nasdaqtrader.com/rss.aspx?feed=tradehalts",
			},
		},
		Scan: models.ScanConfig{
			PrefilterInterval:  7200,
			ValidatorInterval:  10,
			CategorizerResub:   10,
			NewsInterval:       180,
			HaltInterval:       150,
			ReconnectDelay:     30,
			RegistryPath:       "master_registry.json",
			MinVolume:          5_000_000,
			MinPrice:           0.75,
			MaxPrice:           17.00,
			DefaultAvgVolume:   1_000_000,
			PriceWindowMinutes: 15,
		},
		Rules: models.DefaultChannelRules(),
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	switch c.Storage.Backend {
	case "file":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("data directory cannot be empty for file storage")
		}
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	if c.Scan.PrefilterInterval <= 0 || c.Scan.ValidatorInterval <= 0 ||
		c.Scan.NewsInterval <= 0 || c.Scan.HaltInterval <= 0 {
		return fmt.Errorf("all scan intervals must be greater than 0")
	}
	if c.Scan.MinPrice >= c.Scan.MaxPrice {
		return fmt.Errorf("prefilter price bounds are inverted: %.2f >= %.2f", c.Scan.MinPrice, c.Scan.MaxPrice)
	}
	if c.Feeds.Tradier.BatchSize <= 0 {
		return fmt.Errorf("tradier batch size must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
