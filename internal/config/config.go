// =============================================================================
// Price Book Importer - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration. Configuration
// comes from two places:
//   1. The main YAML config file (config.yaml by default)
//   2. The environment, for secrets: the price book API key is read from an
//      environment variable, with a .env file loaded first if present.
//
// Defaults are applied after unmarshalling, so an empty or partial config
// file yields a working configuration.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/elecmate/pricebook-importer/internal/inference"
)

// =============================================================================
// CONFIGURATION STRUCTURES
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for price list files to import.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where dry-run payloads, reject logs and
	// run summaries are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is the directory where successfully imported files are
	// moved. Files are only moved here after the batch was accepted.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PRICING SETTINGS
	// =========================================================================

	// DefaultMarkupPercent is the markup applied when none is given on the
	// command line or in the request. An explicit 0 is honoured (sell price
	// equals buy price).
	// Default: 30
	DefaultMarkupPercent float64 `yaml:"default_markup_percent"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to import concurrently
	// in batch mode. Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// =========================================================================
	// DOMAIN SETTINGS
	// =========================================================================

	// Catalogue holds the defaults applied uniformly to every submitted item.
	Catalogue CatalogueDefaults `yaml:"catalogue_defaults"`

	// Synonyms overrides the built-in header synonym lists used by column
	// inference. Empty lists keep the built-in defaults for that field.
	Synonyms inference.Synonyms `yaml:"column_synonyms"`

	// PriceBookAPI configures the bulk submission client.
	PriceBookAPI APIConfig `yaml:"price_book_api"`

	// Server configures the HTTP import API.
	Server ServerConfig `yaml:"server"`
}

// CatalogueDefaults are the catalogue fields applied uniformly at submission
// time; they are not derived from the input file.
type CatalogueDefaults struct {
	// Unit is the stocking unit for imported items.
	// Default: "each"
	Unit string `yaml:"unit"`

	// StockLevel is the initial stock level for imported items.
	// Default: 0
	StockLevel int `yaml:"stock_level"`

	// ReorderLevel is the reorder threshold for imported items. An explicit
	// 0 is honoured.
	// Default: 10
	ReorderLevel int `yaml:"reorder_level"`
}

// APIConfig configures the price book persistence API.
type APIConfig struct {
	// BaseURL is the root URL of the price book API.
	// Default: "http://localhost:8080"
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds is the request timeout for bulk submissions.
	// Default: 60
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// APIKeyEnv names the environment variable holding the API key. The key
	// itself never lives in the config file.
	// Default: "PRICEBOOK_API_KEY"
	APIKeyEnv string `yaml:"api_key_env"`
}

// ServerConfig configures the HTTP import API.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	// Default: ":8090"
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigins is the CORS allow-list for browser clients.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the main configuration from a YAML file, loads a .env file if
// one exists, applies defaults and ensures the working directories exist.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed.
func Load(configPath string) (*MainConfig, error) {
	// Best-effort .env load; a missing file is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := newMainConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(config)

	if err := ensureDirectories(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Default returns a configuration with every default applied, for callers
// that run without a config file (tests, ad-hoc previews).
func Default() *MainConfig {
	config := newMainConfig()
	applyDefaults(config)
	return config
}

// newMainConfig seeds the numeric settings where zero is a meaningful value
// with negative sentinels, so applyDefaults can tell "unset" apart from an
// explicit 0 in the YAML.
func newMainConfig() *MainConfig {
	return &MainConfig{
		DefaultMarkupPercent: -1,
		Catalogue:            CatalogueDefaults{ReorderLevel: -1},
	}
}

// APIKey reads the price book API key from the configured environment
// variable. Empty when unset.
func (c *MainConfig) APIKey() string {
	return os.Getenv(c.PriceBookAPI.APIKeyEnv)
}

// APITimeout returns the submission timeout as a duration.
func (c *MainConfig) APITimeout() time.Duration {
	return time.Duration(c.PriceBookAPI.TimeoutSeconds) * time.Second
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.DefaultMarkupPercent < 0 {
		config.DefaultMarkupPercent = 30
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.Catalogue.Unit == "" {
		config.Catalogue.Unit = "each"
	}
	if config.Catalogue.ReorderLevel < 0 {
		config.Catalogue.ReorderLevel = 10
	}
	if config.PriceBookAPI.BaseURL == "" {
		config.PriceBookAPI.BaseURL = "http://localhost:8080"
	}
	if config.PriceBookAPI.TimeoutSeconds == 0 {
		config.PriceBookAPI.TimeoutSeconds = 60
	}
	if config.PriceBookAPI.APIKeyEnv == "" {
		config.PriceBookAPI.APIKeyEnv = "PRICEBOOK_API_KEY"
	}
	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = ":8090"
	}
	if len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = []string{"*"}
	}
}

// ensureDirectories creates the working directories if they do not exist.
func ensureDirectories(config *MainConfig) error {
	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.InputArchiveDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}
