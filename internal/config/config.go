package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage drivers for the session store.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config represents the entire configuration file.
type Config struct {
	Trello  TrelloConfig  `yaml:"trello" toml:"trello" json:"trello"`
	Cache   CacheConfig   `yaml:"cache" toml:"cache" json:"cache"`
	Storage StorageConfig `yaml:"storage" toml:"storage" json:"storage"`
	Log     LogConfig     `yaml:"log" toml:"log" json:"log"`
}

// TrelloConfig is the API connection.
type TrelloConfig struct {
	BaseURL   string        `yaml:"baseURL" toml:"baseURL" json:"baseURL"`
	APIKey    string        `yaml:"apiKey" toml:"apiKey" json:"apiKey"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"userAgent,omitempty" toml:"userAgent" json:"userAgent,omitempty"`
}

// CacheConfig mirrors cache.Options.
type CacheConfig struct {
	StaleTime       time.Duration `yaml:"staleTime" toml:"staleTime" json:"staleTime"`
	MaxEntries      int           `yaml:"maxEntries" toml:"maxEntries" json:"maxEntries"`
	QueryRetries    int           `yaml:"queryRetries" toml:"queryRetries" json:"queryRetries"`
	MutationRetries int           `yaml:"mutationRetries" toml:"mutationRetries" json:"mutationRetries"`
	RetryDelay      time.Duration `yaml:"retryDelay" toml:"retryDelay" json:"retryDelay"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver" json:"driver"`
	// Path is the file or database path; unused by the memory driver.
	Path string `yaml:"path,omitempty" toml:"path" json:"path,omitempty"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Default returns a configuration that works once an API key is supplied.
func Default() *Config {
	return &Config{
		Trello: TrelloConfig{
			BaseURL: "https://api.trello.com/1",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			StaleTime:       30 * time.Second,
			MaxEntries:      500,
			QueryRetries:    2,
			MutationRetries: 1,
			RetryDelay:      300 * time.Millisecond,
		},
		Storage: StorageConfig{
			Driver: StorageFile,
			Path:   defaultSessionPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "trellosync-session.json"
	}
	return filepath.Join(dir, "trellosync", "session.json")
}

// ApplyEnv overlays environment variables on c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		c.Trello.APIKey = v
	}
	if v := os.Getenv("TRELLO_BASE_URL"); v != "" {
		c.Trello.BaseURL = v
	}
	if v := os.Getenv("TRELLO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TRELLO_TIMEOUT: %w", err)
		}
		c.Trello.Timeout = d
	}
	if v := os.Getenv("TRELLOSYNC_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("TRELLOSYNC_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("TRELLOSYNC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Trello.APIKey) == "" {
		errs = append(errs, errors.New("trello.apiKey is required"))
	}
	if c.Trello.BaseURL == "" {
		errs = append(errs, errors.New("trello.baseURL is required"))
	}
	if c.Trello.Timeout < 0 {
		errs = append(errs, errors.New("trello.timeout must not be negative"))
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Cache.QueryRetries < 0 || c.Cache.MutationRetries < 0 {
		errs = append(errs, errors.New("cache retries must not be negative"))
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ConfigProvider is an interface for loading a configuration.
type ConfigProvider interface {
	LoadConfig(path string) (*Config, error)
}

// Global references
var (
	provider     ConfigProvider
	loadedConfig *Config
	ErrNotLoaded = fmt.Errorf("configuration not loaded")
)

// SetProvider sets the configuration provider.
func SetProvider(p ConfigProvider) {
	provider = p
}

// Load uses the current provider to load configuration from the given path.
func Load(path string) error {
	if provider == nil {
		return fmt.Errorf("no config provider set")
	}
	cfg, err := provider.LoadConfig(path)
	if err != nil {
		return err
	}
	loadedConfig = cfg
	return nil
}

func GetLoadedConfig() *Config {
	return loadedConfig
}
