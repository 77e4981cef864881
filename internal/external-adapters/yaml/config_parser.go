// Package yaml provides YAML-based provisioning configuration parsing.
package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"driverprov/internal/domain/entities"
)

// yamlConfig represents the raw YAML structure
type yamlConfig struct {
	Browser yamlBrowser `yaml:"browser"`
	Driver  yamlDriver  `yaml:"driver"`
	Lookup  yamlLookup  `yaml:"lookup"`
	Timeout int         `yaml:"timeout_seconds"`
}

type yamlBrowser struct {
	Path string `yaml:"path"`
}

type yamlDriver struct {
	Name      string `yaml:"name"`
	TargetDir string `yaml:"target_dir"`
	Platform  string `yaml:"platform"`
}

type yamlLookup struct {
	BaseURL             string `yaml:"base_url"`
	AllowLatestFallback bool   `yaml:"allow_latest_fallback"`
}

// ConfigParser parses YAML provisioning configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML configuration file into a ProvisionConfig entity
func (p *ConfigParser) ParseFile(filePath string) (*entities.ProvisionConfig, error) {
	//nolint:gosec // G304: filePath is operator-supplied configuration path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a ProvisionConfig entity. Absent fields stay
// zero; defaults are applied by the caller after flag overrides.
func (p *ConfigParser) Parse(data []byte) (*entities.ProvisionConfig, error) {
	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if yamlCfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout_seconds must not be negative, got %d", yamlCfg.Timeout)
	}

	return &entities.ProvisionConfig{
		BrowserPath:         yamlCfg.Browser.Path,
		TargetDir:           yamlCfg.Driver.TargetDir,
		DriverName:          yamlCfg.Driver.Name,
		Platform:            yamlCfg.Driver.Platform,
		LookupBaseURL:       yamlCfg.Lookup.BaseURL,
		AllowLatestFallback: yamlCfg.Lookup.AllowLatestFallback,
		TimeoutSeconds:      yamlCfg.Timeout,
	}, nil
}
