package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file. Keys missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from a file and applies environment
// variable overrides. An empty path starts from Default.
func LoadWithEnv(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	// Apply environment variable overrides
	if listenAddr := os.Getenv("CERTSTAMP_LISTEN_ADDR"); listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if baseURL := os.Getenv("CERTSTAMP_BASE_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}

	if driver := os.Getenv("CERTSTAMP_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}

	if dbPath := os.Getenv("CERTSTAMP_DB_PATH"); dbPath != "" {
		cfg.Store.Path = dbPath
	}

	if mongoURI := os.Getenv("CERTSTAMP_MONGO_URI"); mongoURI != "" {
		cfg.Store.Mongo.URI = mongoURI
	}

	if outputDir := os.Getenv("CERTSTAMP_OUTPUT_DIR"); outputDir != "" {
		cfg.Stamp.OutputDir = outputDir
	}

	if fontPath := os.Getenv("CERTSTAMP_FONT_PATH"); fontPath != "" {
		cfg.Stamp.FontPath = fontPath
	}

	if workers := os.Getenv("CERTSTAMP_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("CERTSTAMP_WORKERS is not a number: %w", err)
		}
		cfg.Stamp.Workers = n
	}

	if dateSource := os.Getenv("CERTSTAMP_DATE_SOURCE"); dateSource != "" {
		cfg.Verify.DateSource = dateSource
	}

	// Validate again after env overrides
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration after env overrides: %w", err)
	}

	return cfg, nil
}
