// Package config handles configuration for agentchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diogo/agentchat/internal/models"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Environment overrides
const (
	EnvHome   = "AGENTCHAT_HOME"
	EnvServer = "AGENTCHAT_SERVER"
)

// MarkdownConfig configures terminal markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "notty", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// StorageConfig selects where the conversation archive is persisted
type StorageConfig struct {
	Backend string `json:"backend"`        // "file", "sqlite" or "memory"
	Path    string `json:"path,omitempty"` // Directory (file) or database path (sqlite)
}

// Config represents the user configuration
type Config struct {
	ServerURL    string `json:"server_url"`
	DefaultAgent string `json:"default_agent"`
	// RequestTimeout bounds message submission, in seconds. The push channel
	// itself has no timeout.
	RequestTimeout int `json:"request_timeout"`
	// Verbose enables debug logging on stderr.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Storage         StorageConfig  `json:"storage"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       models.DefaultServerURL,
		DefaultAgent:    models.DefaultAgent,
		RequestTimeout:  60,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Storage:         StorageConfig{Backend: BackendFile},
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns the submission timeout as a duration
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".agentchat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds saved conversations
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// StoragePath returns the storage location for the configured backend
func (c Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == BackendSQLite {
		return filepath.Join(dir, "agentchat.db"), nil
	}
	return filepath.Join(dir, "store"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return applyEnv(cfg), err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return applyEnv(cfg), fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return applyEnv(DefaultConfig()), fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if server := os.Getenv(EnvServer); server != "" {
		cfg.ServerURL = server
	}
	return cfg
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps dotted config keys to their assignment
var setters = map[string]func(*Config, string) error{
	"server_url": func(c *Config, v string) error {
		v = strings.TrimRight(strings.TrimSpace(v), "/")
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return fmt.Errorf("server_url must start with http:// or https://")
		}
		c.ServerURL = v
		return nil
	},
	"default_agent": func(c *Config, v string) error {
		a, ok := models.AgentByName(v)
		if !ok {
			return fmt.Errorf("unknown agent %q (available: %s)", v, strings.Join(models.AgentNames(), ", "))
		}
		c.DefaultAgent = a.Name
		return nil
	},
	"request_timeout": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("request_timeout must be a positive number of seconds")
		}
		c.RequestTimeout = n
		return nil
	},
	"verbose":           boolSetter(func(c *Config) *bool { return &c.Verbose }),
	"copy_to_clipboard": boolSetter(func(c *Config) *bool { return &c.CopyToClipboard }),
	"tui_theme": func(c *Config, v string) error {
		c.TUITheme = v
		return nil
	},
	"storage.backend": func(c *Config, v string) error {
		switch v {
		case BackendFile, BackendSQLite, BackendMemory:
			c.Storage.Backend = v
			return nil
		}
		return fmt.Errorf("storage.backend must be one of %s, %s, %s", BackendFile, BackendSQLite, BackendMemory)
	},
	"storage.path": func(c *Config, v string) error {
		c.Storage.Path = v
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		c.Markdown.Style = v
		return nil
	},
	"markdown.enable_emoji":       boolSetter(func(c *Config) *bool { return &c.Markdown.EnableEmoji }),
	"markdown.preserve_newlines":  boolSetter(func(c *Config) *bool { return &c.Markdown.PreserveNewLines }),
	"markdown.table_wrap":         boolSetter(func(c *Config) *bool { return &c.Markdown.TableWrap }),
	"markdown.inline_table_links": boolSetter(func(c *Config) *bool { return &c.Markdown.InlineTableLinks }),
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

// Set assigns a value to a dotted config key such as "storage.backend"
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	return set(c, value)
}

// Keys returns the settable config keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
