package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName is the application name used for keyring and config
const AppName = "mdoutline"

// Backends a paste can write to.
const (
	BackendSQLite     = "sqlite"
	BackendRoam       = "roam"
	BackendRoamAppend = "roam-append"
	BackendMemory     = "memory"
)

// Config holds CLI configuration
type Config struct {
	Backend        string `yaml:"backend,omitempty"`       // sqlite, roam, roam-append, memory
	DatabasePath   string `yaml:"database_path,omitempty"` // sqlite file
	BaseURL        string `yaml:"base_url,omitempty"`
	GraphName      string `yaml:"graph_name,omitempty"`
	Token          string `yaml:"token,omitempty"`
	KeyringBackend string `yaml:"keyring_backend,omitempty"` // auto, keychain, file
	OutputFormat   string `yaml:"output_format,omitempty"`   // text, json, yaml
	CodeLanguage   string `yaml:"code_language,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"` // debug, info, warn, error
}

type field struct {
	get     func(*Config) *string
	allowed []string
}

var fields = map[string]field{
	"backend":         {get: func(c *Config) *string { return &c.Backend }, allowed: []string{BackendSQLite, BackendRoam, BackendRoamAppend, BackendMemory}},
	"database_path":   {get: func(c *Config) *string { return &c.DatabasePath }},
	"base_url":        {get: func(c *Config) *string { return &c.BaseURL }},
	"graph_name":      {get: func(c *Config) *string { return &c.GraphName }},
	"token":           {get: func(c *Config) *string { return &c.Token }},
	"keyring_backend": {get: func(c *Config) *string { return &c.KeyringBackend }, allowed: []string{"auto", "keychain", "file"}},
	"output_format":   {get: func(c *Config) *string { return &c.OutputFormat }, allowed: []string{"text", "json", "yaml"}},
	"code_language":   {get: func(c *Config) *string { return &c.CodeLanguage }},
	"log_level":       {get: func(c *Config) *string { return &c.LogLevel }, allowed: []string{"debug", "info", "warn", "error"}},
}

// Keys returns the supported configuration keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return *f.get(c), nil
}

// Set assigns value to key. Keys with a fixed set of values reject others.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if len(f.allowed) > 0 && value != "" && !contains(f.allowed, value) {
		return fmt.Errorf("invalid %s %q (expected one of: %s)", key, value, strings.Join(f.allowed, ", "))
	}
	*f.get(c) = value
	return nil
}

// Unset clears key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultDatabasePath returns the default location of the notes database.
func DefaultDatabasePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notes.db"), nil
}

// EnsureKeyringDir ensures the keyring directory exists and returns its path
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyringDir := filepath.Join(dir, "keyring")
	if err := os.MkdirAll(keyringDir, 0o700); err != nil {
		return "", fmt.Errorf("creating keyring directory: %w", err)
	}
	return keyringDir, nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file yields an empty
// config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
