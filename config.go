package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`
	REPL      REPLConfig      `json:"repl" yaml:"repl"`
	Script    ScriptConfig    `json:"script" yaml:"script"`
	Jobs      JobsConfig      `json:"jobs" yaml:"jobs"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// WorkspaceConfig locates the sandboxed workspace on the host
type WorkspaceConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// REPLConfig contains shell configuration
type REPLConfig struct {
	HistorySize int    `json:"history_size" yaml:"history_size"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
	ShowBanner  bool   `json:"show_banner" yaml:"show_banner"`
	ForceColors bool   `json:"force_colors" yaml:"force_colors"`
}

// ScriptConfig contains interpreter configuration
type ScriptConfig struct {
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// JobsConfig contains background job configuration
type JobsConfig struct {
	Limit int `json:"limit" yaml:"limit"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeKB  int64  `json:"max_size_kb,omitempty" yaml:"max_size_kb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Dir: "~/.valyxo/workspace",
		},
		REPL: REPLConfig{
			HistorySize: 1000,
			ShowBanner:  true,
		},
		Script: ScriptConfig{
			MaxIterations: 10000,
		},
		Jobs: JobsConfig{
			Limit: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a file, falling back to defaults when
// the path is empty or the file does not exist
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	// Determine file format by extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %v", err)
		}
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %v", err)
		}
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON config: %v", err)
		}
	default:
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML config: %v", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

// findConfigFile resolves the config path from the flag, the VALYXO_CONFIG
// environment variable and the default locations, in that order
func findConfigFile(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("VALYXO_CONFIG"); envPath != "" {
		return envPath
	}

	home, _ := os.UserHomeDir()
	defaultPaths := []string{
		filepath.Join(home, ".valyxo", "config.yaml"),
		"./valyxo.yaml",
	}
	for _, path := range defaultPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
