package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all configuration for the stamper and the verifier
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Stamp   StampConfig   `yaml:"stamp"`
	QR      QRConfig      `yaml:"qr"`
	Verify  VerifyConfig  `yaml:"verify"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains verifier server configuration
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// BaseURL is the externally reachable address QR codes point at
	BaseURL string `yaml:"base_url"`
}

// StoreConfig selects and configures the certificate record store
type StoreConfig struct {
	Driver string      `yaml:"driver"` // sqlite or mongo
	Path   string      `yaml:"path"`
	Mongo  MongoConfig `yaml:"mongo"`
}

// MongoConfig contains MongoDB connection settings
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Timeout    string `yaml:"timeout"`
}

// StampConfig contains stamper configuration
type StampConfig struct {
	SystemName      string `yaml:"system_name"`
	OutputDir       string `yaml:"output_dir"`
	FontPath        string `yaml:"font_path"`
	Workers         int    `yaml:"workers"`
	FetchTimeout    string `yaml:"fetch_timeout"`
	MaxDocumentSize int64  `yaml:"max_document_size"`
}

// QRConfig contains QR encoding parameters
type QRConfig struct {
	Level      string `yaml:"level"`
	MaxVersion int    `yaml:"max_version"`
	ModuleSize int    `yaml:"module_size"`
	Border     int    `yaml:"border"`
}

// VerifyConfig contains verifier behaviour
type VerifyConfig struct {
	// DateSource is "today" or "stamped"
	DateSource string `yaml:"date_source"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Date sources for the verifier
const (
	DateSourceToday   = "today"
	DateSourceStamped = "stamped"
)

// Default returns a configuration that validates as is
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "0.0.0.0:5000",
			BaseURL:    "http://localhost:5000",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "certstamp.db",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "eventDB",
				Collection: "users",
				Timeout:    "10s",
			},
		},
		Stamp: StampConfig{
			SystemName:      "EventDB",
			OutputDir:       "output_pdfs",
			Workers:         1,
			FetchTimeout:    "30s",
			MaxDocumentSize: 20 << 20,
		},
		QR: QRConfig{
			Level:      "M",
			MaxVersion: 10,
			ModuleSize: 3,
			Border:     2,
		},
		Verify: VerifyConfig{
			DateSource: DateSourceToday,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL")
	}

	// Store validation
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite")
		}
	case "mongo":
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required for mongo")
		}
		if c.Store.Mongo.Database == "" || c.Store.Mongo.Collection == "" {
			return fmt.Errorf("store.mongo.database and store.mongo.collection are required")
		}
		if _, err := time.ParseDuration(c.Store.Mongo.Timeout); err != nil {
			return fmt.Errorf("store.mongo.timeout is invalid: %w", err)
		}
	default:
		return fmt.Errorf("store.driver must be 'sqlite' or 'mongo'")
	}

	// Stamp validation
	if c.Stamp.SystemName == "" {
		return fmt.Errorf("stamp.system_name is required")
	}
	if c.Stamp.OutputDir == "" {
		return fmt.Errorf("stamp.output_dir is required")
	}
	if c.Stamp.Workers <= 0 {
		return fmt.Errorf("stamp.workers must be positive")
	}
	if _, err := time.ParseDuration(c.Stamp.FetchTimeout); err != nil {
		return fmt.Errorf("stamp.fetch_timeout is invalid: %w", err)
	}
	if c.Stamp.MaxDocumentSize <= 0 {
		return fmt.Errorf("stamp.max_document_size must be positive")
	}

	// QR validation
	validLevels := map[string]bool{"L": true, "M": true, "Q": true, "H": true}
	if !validLevels[c.QR.Level] {
		return fmt.Errorf("qr.level must be one of: L, M, Q, H")
	}
	if c.QR.MaxVersion < 1 || c.QR.MaxVersion > 40 {
		return fmt.Errorf("qr.max_version must be between 1 and 40")
	}
	if c.QR.ModuleSize <= 0 {
		return fmt.Errorf("qr.module_size must be positive")
	}
	if c.QR.Border < 0 {
		return fmt.Errorf("qr.border must not be negative")
	}

	// Verify validation
	if c.Verify.DateSource != DateSourceToday && c.Verify.DateSource != DateSourceStamped {
		return fmt.Errorf("verify.date_source must be 'today' or 'stamped'")
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	return nil
}

// GetFetchTimeout returns the document fetch timeout as time.Duration
func (c *Config) GetFetchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Stamp.FetchTimeout)
	return d
}

// GetMongoTimeout returns the MongoDB operation timeout as time.Duration
func (c *Config) GetMongoTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Store.Mongo.Timeout)
	return d
}
