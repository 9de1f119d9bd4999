package home

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/store"
)

// Config represents the application configuration
type Config struct {
	App     models.AppConfig `yaml:"app"`
	History HistoryConfig    `yaml:"history"`
	Logging LoggingConfig    `yaml:"logging"`
	Server  ServerConfig     `yaml:"server"`
}

// HistoryConfig contains history storage settings
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig contains server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// LoadConfig loads configuration from config.yaml. The embedded template
// store is repaired on load so missing or modified built-ins never reach the
// rest of the application.
func (m *Manager) LoadConfig() (*Config, error) {
	configPath := m.ConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.App.TemplateStore = store.NewManager().RepairStore(config.App.TemplateStore)
	if config.App.RulePriorityMode == "" {
		config.App.RulePriorityMode = models.PriorityCombined
	}

	return &config, nil
}

// LoadOrDefault returns the saved config, or defaults when none exists yet.
func (m *Manager) LoadOrDefault() (*Config, error) {
	if _, err := os.Stat(m.ConfigPath()); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return m.LoadConfig()
}

// SaveConfig saves configuration to config.yaml
func (m *Manager) SaveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := m.ConfigPath()
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		App: models.AppConfig{
			TemplateStore:    store.DefaultTemplateStore(),
			RulePriorityMode: models.PriorityCombined,
		},
		History: HistoryConfig{
			Path: HistoryFile,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/renamekit.log",
		},
		Server: ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
	}
}
