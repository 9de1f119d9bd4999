// Package home manages the application home directory (~/.renamekit by
// default) holding the config file and the history database.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

// Manager handles the application home directory
type Manager struct {
	path string
}

// Subdirectories within home
const (
	LogsDir = "logs"
)

// Files within home
const (
	ConfigFile  = "config.yaml"
	HistoryFile = "history.db"
)

// NewManager creates a new home directory manager
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = DefaultHomePath()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid home path: %w", err)
	}

	return &Manager{path: absPath}, nil
}

// DefaultHomePath returns the default home directory path
func DefaultHomePath() string {
	if path := os.Getenv("RENAMEKIT_HOME"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".renamekit"
	}
	return filepath.Join(home, ".renamekit")
}

// Path returns the home directory path
func (m *Manager) Path() string {
	return m.path
}

// Initialize creates the home directory structure and a default config when
// none exists
func (m *Manager) Initialize() error {
	dirs := []string{
		"", // Home directory itself
		LogsDir,
	}

	for _, dir := range dirs {
		path := m.JoinPath(dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}

	if err := m.initializeConfig(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	return nil
}

// Exists checks if the home directory exists
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.IsDir()
}

// JoinPath joins path elements relative to home directory
func (m *Manager) JoinPath(elem ...string) string {
	parts := append([]string{m.path}, elem...)
	return filepath.Join(parts...)
}

// ConfigPath returns the path to the config file
func (m *Manager) ConfigPath() string {
	return m.JoinPath(ConfigFile)
}

// HistoryPath returns the path to the history database
func (m *Manager) HistoryPath() string {
	return m.JoinPath(HistoryFile)
}

func (m *Manager) initializeConfig() error {
	if _, err := os.Stat(m.ConfigPath()); err == nil {
		return nil
	}
	return m.SaveConfig(DefaultConfig())
}
