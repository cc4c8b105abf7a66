package filesys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/egobogo/trellosync/internal/config"
)

// FilesysConfigProvider is a concrete implementation of ConfigProvider that
// reads YAML or TOML config files, chosen by extension.
type FilesysConfigProvider struct {
	cfg *config.Config
}

// NewFilesysConfigProvider creates a new FilesysConfigProvider and loads the configuration from the given path.
func NewFilesysConfigProvider(path string) (*FilesysConfigProvider, error) {
	prov := &FilesysConfigProvider{}
	// Load config during initialization.
	cfg, err := prov.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	prov.cfg = cfg
	return prov, nil
}

// Config returns the configuration loaded at construction.
func (f *FilesysConfigProvider) Config() *config.Config {
	return f.cfg
}

// LoadConfig reads the file at path over config.Default, so omitted keys
// keep their defaults.
func (f *FilesysConfigProvider) LoadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	cfg := config.Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}
